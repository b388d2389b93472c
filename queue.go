package eqemu

import (
	"fmt"
	"strings"
	"time"
)

const Version = "Queue system emulator v0.1"

// TicketShowDuration is how long the display shows a freshly issued
// ticket before returning to the customer being served.
const TicketShowDuration = time.Second

type custStat struct {
	id         int
	start, end time.Time
}

// Queue is the state of the ticket machine: the last issued ticket and
// the customer being served.
type Queue struct {
	Ticket   int
	Customer int

	// ReportInputs makes IssueTicket and NextCustomer produce report
	// lines on Reports.
	ReportInputs bool
	Echo         bool
	Reports      func(line string)

	Now func() time.Time

	lastTicket time.Time
	stats      []custStat
	log        Logger
}

func NewQueue(l Logger) *Queue {
	if l == nil {
		l = NewNopLogger()
	}
	return &Queue{
		Now: time.Now,
		log: l,
	}
}

func (q *Queue) IssueTicket() {
	now := q.Now()
	q.Ticket++
	q.lastTicket = now
	q.stats = append(q.stats, custStat{id: q.Ticket, start: now})
	q.report("ticket: %d", q.Ticket)
}

// NextCustomer advances to the next waiting ticket. It does nothing when
// nobody is waiting.
func (q *Queue) NextCustomer() {
	if q.Customer >= q.Ticket {
		return
	}
	q.Customer++
	q.lastTicket = time.Time{}

	now := q.Now()
	for i := range q.stats {
		if q.stats[i].id == q.Customer {
			q.stats[i].end = now
			st := q.stats[i]
			// TODO: cap the history at the last 16 entries
			q.log.Debugf("customer %d waited %s", st.id, st.end.Sub(st.start))
			break
		}
	}
	q.report("customer: %d", q.Customer)
}

func (q *Queue) Reset() {
	q.Ticket = 0
	q.Customer = 0
	q.lastTicket = time.Time{}
}

// showingTicket reports whether a ticket was issued within the show
// duration.
func (q *Queue) showingTicket() bool {
	if q.lastTicket.IsZero() {
		return false
	}
	return q.Now().Sub(q.lastTicket) < TicketShowDuration
}

// DisplayNumber is the ticket just issued, or the customer being served.
func (q *Queue) DisplayNumber() int {
	if q.showingTicket() {
		return q.Ticket
	}
	return q.Customer
}

// LED reports the state of LED i. LED 0 lights while a new ticket is
// shown, LED 1 otherwise.
func (q *Queue) LED(i int) bool {
	on := 1
	if q.showingTicket() {
		on = 0
	}
	return i == on
}

// AvgWait averages the time between issue and service of served tickets.
func (q *Queue) AvgWait() time.Duration {
	var sum time.Duration
	count := 0
	for _, st := range q.stats {
		if st.end.IsZero() {
			continue
		}
		sum += st.end.Sub(st.start)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / time.Duration(count)
}

// Apply pushes the queue state to the panel.
func (q *Queue) Apply(p *Panel) {
	p.SetDisplayNumber(q.DisplayNumber())
	for i := range p.LEDs() {
		p.SetLED(i, q.LED(i))
	}
}

// Command runs one line of the device control protocol and returns the
// reply. Only the first character of the line is significant.
func (q *Queue) Command(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	q.log.Debugf("command %q", line)

	switch line[0] {
	case 'e':
		q.Echo = !q.Echo
		return "OK,turning echo " + onOff(q.Echo)
	case 'i':
		q.ReportInputs = !q.ReportInputs
		return "OK,turning input reports " + onOff(q.ReportInputs)
	case 'v':
		return "OK," + Version
	case 'r':
		q.Reset()
		return "OK,reseting queues"
	case 't':
		return fmt.Sprintf("OK,ticket: %d", q.Ticket)
	case 'c':
		return fmt.Sprintf("OK,customer: %d", q.Customer)
	case 'q':
		q.IssueTicket()
		return "OK,issuing queue ticket"
	case 'n':
		q.NextCustomer()
		return "OK,next customer"
	case 'a':
		return fmt.Sprintf("OK,avg wait time: %d", int64(q.AvgWait()/time.Second))
	case 'h':
		return "OK,commands: (e)cho, (v)ersion, (t)icket, (c)ustomer, " +
			"(n)ext, (q)ueue, (a)verage wait time, (r)eset, (i)nput-reports, (h)elp."
	}
	return "ERR,unknown command: " + line
}

func (q *Queue) report(format string, args ...any) {
	if !q.ReportInputs || q.Reports == nil {
		return
	}
	q.Reports(fmt.Sprintf(format, args...))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
