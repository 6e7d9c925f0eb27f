package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_CanTransition(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		from, to State
		want     bool
	}{
		"start launching":         {from: NotStarted, to: Launching, want: true},
		"launch fails":            {from: Launching, to: Crashed, want: true},
		"launch succeeds":         {from: Launching, to: Streaming, want: true},
		"streaming completes":     {from: Streaming, to: Completed, want: true},
		"streaming times out":     {from: Streaming, to: TimedOut, want: true},
		"completed finalizes":     {from: Completed, to: Finalized, want: true},
		"timed out finalizes":     {from: TimedOut, to: Finalized, want: true},
		"skip launching":          {from: NotStarted, to: Streaming, want: false},
		"terminal states exclude": {from: Completed, to: TimedOut, want: false},
		"finalized is final":      {from: Finalized, to: NotStarted, want: false},
		"no skipping cleanup":     {from: Streaming, to: Finalized, want: false},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "timed_out", TimedOut.String())
	assert.Equal(t, "state(99)", State(99).String())
	assert.True(t, Crashed.Terminal())
	assert.False(t, Finalized.Terminal())
}

func TestMachine(t *testing.T) {
	t.Parallel()

	var seen []State
	m := newMachine(func(s State) { seen = append(seen, s) })
	m.to(Launching)
	m.to(Streaming)
	m.to(TimedOut)
	m.to(Finalized)

	assert.Equal(t, TimedOut, m.terminal)
	assert.Equal(t, []State{NotStarted, Launching, Streaming, TimedOut, Finalized}, m.history)
	assert.Equal(t, m.history[1:], seen)

	assert.Panics(t, func() { m.to(Completed) })
}
