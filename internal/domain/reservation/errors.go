package reservation

import "errors"

// The five caller-facing error kinds. The HTTP layer maps these with
// errors.Is, so every more specific error below wraps one of them.
var (
	ErrNotFound          = errors.New("reservation: not found")
	ErrForbidden         = errors.New("reservation: actor not authorized")
	ErrConflict          = errors.New("reservation: conflicting reservation")
	ErrInvalidTransition = errors.New("reservation: status does not permit operation")
	ErrInvalidState      = errors.New("reservation: listing not eligible")
)

var (
	// ErrAlreadyRequested signals the buyer already holds an active reservation
	// on the listing.
	ErrAlreadyRequested = wrap("buyer already has an active reservation for this listing", ErrConflict)
	// ErrSlotTaken signals another reservation occupies the exact visit slot.
	ErrSlotTaken = wrap("visit slot already taken", ErrConflict)
	// ErrCancelTooLate rejects cancellations inside the lead-time window.
	ErrCancelTooLate = wrap("visit can no longer be cancelled this close to its slot", ErrInvalidState)
	// ErrSlotInPast rejects visit slots that are not in the future.
	ErrSlotInPast = wrap("visit slot must be in the future", ErrInvalidState)
	// ErrSlotOffGrid rejects visit slots outside the fixed visiting hours.
	ErrSlotOffGrid = wrap("visit slot is outside visiting hours", ErrInvalidState)
)

type wrapped struct {
	msg  string
	kind error
}

func wrap(msg string, kind error) error {
	return wrapped{msg: "reservation: " + msg, kind: kind}
}

func (w wrapped) Error() string { return w.msg }
func (w wrapped) Unwrap() error { return w.kind }
