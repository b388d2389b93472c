package eqemu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestQueue() (*Queue, *fakeClock) {
	clk := &fakeClock{t: time.Date(2014, 5, 1, 9, 0, 0, 0, time.UTC)}
	q := NewQueue(nil)
	q.Now = clk.now
	return q, clk
}

func TestQueueDisplay(t *testing.T) {
	q, clk := newTestQueue()
	assert.Equal(t, 0, q.DisplayNumber())
	assert.True(t, q.LED(1))
	assert.False(t, q.LED(0))

	q.IssueTicket()
	q.IssueTicket()
	assert.Equal(t, 2, q.DisplayNumber(), "fresh ticket is shown")
	assert.True(t, q.LED(0))
	assert.False(t, q.LED(1))

	clk.advance(TicketShowDuration)
	assert.Equal(t, 0, q.DisplayNumber(), "back to the customer being served")
	assert.True(t, q.LED(1))

	q.NextCustomer()
	assert.Equal(t, 1, q.DisplayNumber())
}

func TestQueueNextCustomer(t *testing.T) {
	q, clk := newTestQueue()
	q.NextCustomer()
	assert.Equal(t, 0, q.Customer, "nobody waiting")

	q.IssueTicket()
	assert.Equal(t, 1, q.DisplayNumber())
	q.NextCustomer()
	assert.Equal(t, 1, q.Customer)
	assert.Equal(t, 1, q.DisplayNumber(), "serving clears the ticket display")
	assert.True(t, q.LED(1))

	clk.advance(time.Minute)
	q.NextCustomer()
	assert.Equal(t, 1, q.Customer)
}

func TestQueueAvgWait(t *testing.T) {
	q, clk := newTestQueue()
	assert.Zero(t, q.AvgWait())

	q.IssueTicket()
	clk.advance(10 * time.Second)
	q.IssueTicket()
	clk.advance(20 * time.Second)
	q.NextCustomer() // waited 30s
	clk.advance(10 * time.Second)
	q.NextCustomer() // waited 30s
	q.IssueTicket()  // still waiting

	assert.Equal(t, 30*time.Second, q.AvgWait())
	assert.Equal(t, "OK,avg wait time: 30", q.Command("a"))
}

func TestQueueCommands(t *testing.T) {
	q, _ := newTestQueue()
	var reports []string
	q.Reports = func(line string) { reports = append(reports, line) }

	assert.Equal(t, "OK,"+Version, q.Command("v"))
	assert.Equal(t, "OK,issuing queue ticket", q.Command("q\r"))
	assert.Empty(t, reports, "input reports are off by default")

	assert.Equal(t, "OK,turning input reports on", q.Command("i"))
	q.Command("queue")
	q.Command("n")
	assert.Equal(t, []string{"ticket: 2", "customer: 1"}, reports)

	assert.Equal(t, "OK,ticket: 2", q.Command("t"))
	assert.Equal(t, "OK,customer: 1", q.Command("c"))
	assert.Equal(t, "OK,turning echo on", q.Command("e"))
	assert.Equal(t, "OK,turning echo off", q.Command("e"))
	assert.Contains(t, q.Command("h"), "(r)eset")
	assert.Equal(t, "ERR,unknown command: x", q.Command("x"))
	assert.Equal(t, "", q.Command("  "))

	assert.Equal(t, "OK,reseting queues", q.Command("r"))
	assert.Zero(t, q.Ticket)
	assert.Zero(t, q.Customer)
}

func TestQueueApply(t *testing.T) {
	p := loadPanel(t)
	q, clk := newTestQueue()

	for i := 0; i < 12; i++ {
		q.IssueTicket()
	}
	q.Apply(p)
	require.Equal(t, 12, p.DisplayNumber())
	assert.True(t, p.LED(0))
	assert.False(t, p.LED(1))

	clk.advance(2 * time.Second)
	q.Apply(p)
	assert.Equal(t, 0, p.DisplayNumber())
	assert.False(t, p.LED(0))
	assert.True(t, p.LED(1))
}
