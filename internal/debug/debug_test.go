package debug

import (
	"bytes"
	"strings"
	"testing"
)

func withOutput(t *testing.T, on bool) *bytes.Buffer {
	t.Helper()
	was := Enabled()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(on)
	t.Cleanup(func() { SetEnabled(was) })
	return &buf
}

func TestLogDisabled(t *testing.T) {
	buf := withOutput(t, false)
	Log("hidden %d", 1)
	Trace("f")()
	if buf.Len() != 0 {
		t.Errorf("disabled logging wrote %q", buf.String())
	}
}

func TestLogEnabled(t *testing.T) {
	buf := withOutput(t, true)
	Log("shown %d", 2)
	Trace("compute")()

	out := buf.String()
	for _, want := range []string{"[TREESELECT]", "shown 2", "-> compute", "<- compute"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
