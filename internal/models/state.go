package models

// State selects a subset of bookings in a listing query.
type State string

const (
	StateAll      State = "ALL"
	StateCurrent  State = "CURRENT"
	StatePast     State = "PAST"
	StateFuture   State = "FUTURE"
	StateWaiting  State = "WAITING"
	StateRejected State = "REJECTED"
)

var knownStates = map[string]State{
	string(StateAll):      StateAll,
	string(StateCurrent):  StateCurrent,
	string(StatePast):     StatePast,
	string(StateFuture):   StateFuture,
	string(StateWaiting):  StateWaiting,
	string(StateRejected): StateRejected,
}

// ParsedState is the result of ParseState. When Known is false, State is
// empty and Raw holds the token that could not be recognized.
type ParsedState struct {
	State State
	Raw   string
	Known bool
}

// ParseState never fails: an empty token means ALL, an exact state name maps
// to that state and anything else comes back with Known=false.
func ParseState(raw string) ParsedState {
	if raw == "" {
		return ParsedState{State: StateAll, Known: true}
	}
	if st, ok := knownStates[raw]; ok {
		return ParsedState{State: st, Raw: raw, Known: true}
	}
	return ParsedState{Raw: raw}
}

// Role is the perspective of a booking listing.
type Role int

const (
	RoleBooker Role = iota
	RoleOwner
)

func (r Role) String() string {
	if r == RoleOwner {
		return "owner"
	}
	return "booker"
}
