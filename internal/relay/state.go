package relay

import "sync/atomic"

// State is a session's place in its Open -> Draining -> Closed lifecycle.
type State int32

const (
	StateOpen State = iota
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type stateBox struct {
	v atomic.Int32
}

func (b *stateBox) load() State { return State(b.v.Load()) }

// transition moves to next unless already at or past it, returning
// whether this call performed the move. Closed never regresses.
func (b *stateBox) transition(next State) bool {
	for {
		cur := State(b.v.Load())
		if cur >= next {
			return false
		}
		if b.v.CompareAndSwap(int32(cur), int32(next)) {
			return true
		}
	}
}
