package engine

import "fmt"

// State is a step in the lifecycle of one engine run.
type State int

const (
	NotStarted State = iota
	Launching
	Streaming
	Completed
	TimedOut
	Crashed
	Finalized
)

var stateNames = map[State]string{
	NotStarted: "not_started",
	Launching:  "launching",
	Streaming:  "streaming",
	Completed:  "completed",
	TimedOut:   "timed_out",
	Crashed:    "crashed",
	Finalized:  "finalized",
}

// String returns the snake_case name of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s is one of the mutually exclusive end states
// reached before cleanup.
func (s State) Terminal() bool {
	return s == Completed || s == TimedOut || s == Crashed
}

var transitions = map[State][]State{
	NotStarted: {Launching},
	Launching:  {Streaming, Crashed},
	Streaming:  {Completed, TimedOut, Crashed},
	Completed:  {Finalized},
	TimedOut:   {Finalized},
	Crashed:    {Finalized},
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// machine tracks the run state and notifies an optional observer.
type machine struct {
	current  State
	terminal State
	history  []State
	observe  func(State)
}

func newMachine(observe func(State)) *machine {
	return &machine{current: NotStarted, history: []State{NotStarted}, observe: observe}
}

// to moves to next. An illegal move is a programming error in the driver.
func (m *machine) to(next State) {
	if !m.current.CanTransition(next) {
		panic(fmt.Sprintf("engine: invalid state transition %s -> %s", m.current, next))
	}
	m.current = next
	if next.Terminal() {
		m.terminal = next
	}
	m.history = append(m.history, next)
	if m.observe != nil {
		m.observe(next)
	}
}
