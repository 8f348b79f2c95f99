package listbox

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// concern names a debounced activity. Each has exactly one pending timer.
type concern int

const (
	viewportTimer concern = iota
	showTimer
	hideTimer
	filterTimer
	keyboardTimer
	numTimers
)

func (c concern) String() string {
	switch c {
	case viewportTimer:
		return "viewport"
	case showTimer:
		return "show"
	case hideTimer:
		return "hide"
	case filterTimer:
		return "filter"
	case keyboardTimer:
		return "keyboard"
	}
	return "unknown"
}

// TimerMsg is sent when a debounce timer fires. Only the message from the
// most recent start of a timer is honoured.
type TimerMsg struct {
	id      int
	concern concern
	seq     int
}

// timer is a single-slot restartable timer. Starting it invalidates any
// earlier start; stopping it invalidates the current one.
type timer struct {
	id      int
	concern concern
	seq     int
	pending bool
}

func (t *timer) start(d time.Duration) tea.Cmd {
	t.seq++
	t.pending = true
	msg := TimerMsg{id: t.id, concern: t.concern, seq: t.seq}
	if d <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}

func (t *timer) stop() {
	t.seq++
	t.pending = false
}

// fire reports whether msg is the current firing of this timer, and marks it
// as no longer pending.
func (t *timer) fire(msg TimerMsg) bool {
	if msg.id != t.id || msg.concern != t.concern || msg.seq != t.seq || !t.pending {
		return false
	}
	t.pending = false
	return true
}
