package entity

// State is the lifecycle state of an entity. Transitions move strictly
// forward along the order below; dissolved is terminal.
type State string

const (
	StateCapture      State = "capture"
	StateTransitional State = "transitional"
	StatePermanent    State = "permanent"
	StateArchived     State = "archived"
	StateDissolved    State = "dissolved"
)

// stateOrder is the canonical forward order of lifecycle states.
var stateOrder = []State{
	StateCapture,
	StateTransitional,
	StatePermanent,
	StateArchived,
	StateDissolved,
}

// States returns the lifecycle states in forward order.
func States() []State {
	out := make([]State, len(stateOrder))
	copy(out, stateOrder)

	return out
}

// Valid reports whether s is a known lifecycle state.
func (s State) Valid() bool {
	for _, known := range stateOrder {
		if s == known {
			return true
		}
	}

	return false
}

// Rank returns the position of s in the forward order, or -1 for unknown states.
func (s State) Rank() int {
	for i, known := range stateOrder {
		if s == known {
			return i
		}
	}

	return -1
}

// Next returns the immediate successor state, or false when s is terminal
// or unknown.
func (s State) Next() (State, bool) {
	rank := s.Rank()
	if rank < 0 || rank == len(stateOrder)-1 {
		return "", false
	}

	return stateOrder[rank+1], true
}

// Terminal reports whether no further forward transition exists.
func (s State) Terminal() bool {
	return s == StateDissolved
}
