package appointment

import "fmt"

// legalTransitions is the single source of truth for the lifecycle. Every
// entry point that mutates status consults it, so illegal requests are
// rejected uniformly no matter which handler they arrive through.
var legalTransitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted},
	// completed, cancelled and no-show are terminal
}

func CanTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leads out of s.
func Terminal(s Status) bool {
	return len(legalTransitions[s]) == 0
}

// IllegalTransitionError names both the current and the requested state so
// the client can render a precise message.
type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %q to %q", e.From, e.To)
}
