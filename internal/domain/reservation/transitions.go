package reservation

// Transitions is the single authoritative transition table. Every status
// mutation on the aggregate goes through CanTransition; nothing else may
// assign Status.
var Transitions = map[Status][]Status{
	StatusPending:   {StatusReserved, StatusRefused, StatusCancelled, StatusExpired},
	StatusScheduled: {StatusConfirmed, StatusRefused, StatusCancelled, StatusExpired},
	StatusReserved:  {StatusPaid, StatusCancelled, StatusExpired},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	// Terminal states.
	StatusPaid:      {},
	StatusCompleted: {},
	StatusRefused:   {},
	StatusCancelled: {},
	StatusExpired:   {},
}

// CanTransition reports whether from -> to is a legal status change.
// Self transitions are allowed so idempotent retries become no-ops.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := Transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition can leave the status.
func (s Status) Terminal() bool {
	return len(Transitions[s]) == 0
}

// Active reports whether the reservation still occupies the listing in some
// form. The listing availability invariant is computed over active rows only,
// plus the terminal paid state that pins a listing as sold.
func (s Status) Active() bool {
	return !s.Terminal()
}

// HoldsListing reports whether the status contributes an exclusive hold on
// the listing (reserved now, or bought outright).
func (s Status) HoldsListing() bool {
	return s == StatusReserved || s == StatusPaid
}
