package state

// IsTransitionAllowed reports whether a user may move between two states.
// Idle is reachable from anywhere, including states this build does not know.
// A dialogue starts from idle or replaces the dialogue already pending.
func IsTransitionAllowed(from, to State) bool {
	if to == StateIdle {
		return true
	}
	return to.isDialogue() && (from == StateIdle || from.isDialogue())
}

func (s State) isDialogue() bool {
	switch s {
	case StateAwaitingStudyHours, StateAwaitingAwardDetails:
		return true
	default:
		return false
	}
}
