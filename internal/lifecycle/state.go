package lifecycle

import "fmt"

// State is the local progress of one file through its remote job
type State int

const (
	StateCreated State = iota
	StateSubmitted
	StatePolling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSubmitted:
		return "submitted"
	case StatePolling:
		return "polling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal reports whether no further transition is possible
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition validates a state change. An illegal transition is a programming error.
func Transition(from, to State) error {
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	return nil
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateCreated:
		return to == StateSubmitted || to == StateFailed
	case StateSubmitted:
		return to == StatePolling || to == StateFailed
	case StatePolling:
		return to == StatePolling || to == StateDone || to == StateFailed
	default:
		return false
	}
}
