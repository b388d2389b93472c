package eqemu

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLogger("panel", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	l.Infof("loaded %s", "device.obj")
	l.Warnf("missing %s", "texture")
	l.Errorf("boom")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[panel] INFO: loaded device.obj")
	assert.Contains(t, errOut.String(), "[panel] WARN: missing texture")
	assert.Contains(t, errOut.String(), "[panel] ERROR: boom")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	assert.Contains(t, out.String(), "DEBUG: shown 2")
}

func TestDefaultLoggerNoPrefix(t *testing.T) {
	var out bytes.Buffer
	l := newLogger("", false, &out, &out)
	l.Infof("plain")
	if !strings.Contains(out.String(), " INFO: plain") || strings.Contains(out.String(), "[") {
		t.Errorf("unexpected line %q", out.String())
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())
	l.Errorf("ignored")
}
