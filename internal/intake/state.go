package intake

import "fmt"

// State is the intake flow's current phase.
type State int

const (
	Idle State = iota
	Recording
	Transcribing
	Analyzing
	Reviewing
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	case Analyzing:
		return "analyzing"
	case Reviewing:
		return "reviewing"
	case Committing:
		return "committing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Busy reports whether an operation is in flight.
func (s State) Busy() bool {
	return s == Transcribing || s == Analyzing || s == Committing
}

// allowed reports whether the flow may move from one state to another.
func allowed(from, to State) bool {
	switch from {
	case Idle:
		return to == Recording || to == Analyzing
	case Recording:
		return to == Transcribing || to == Idle
	case Transcribing:
		return to == Idle
	case Analyzing:
		return to == Reviewing || to == Idle
	case Reviewing:
		return to == Committing || to == Idle
	case Committing:
		return to == Idle || to == Reviewing
	default:
		return false
	}
}
