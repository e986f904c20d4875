package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"automarket/internal/domain/listings"
	"automarket/internal/domain/shared/events"
	"automarket/internal/domain/user"
)

type ReservationID string

// Kind distinguishes a purchase hold from a scheduled test visit.
type Kind string

const (
	KindPurchase Kind = "purchase"
	KindVisit    Kind = "visit"
)

type Status string

const (
	StatusPending   Status = "PENDING"   // purchase request awaiting seller decision
	StatusScheduled Status = "SCHEDULED" // visit request awaiting seller decision
	StatusReserved  Status = "RESERVED"  // approved purchase hold
	StatusConfirmed Status = "CONFIRMED" // approved visit
	StatusPaid      Status = "PAID"
	StatusCompleted Status = "COMPLETED"
	StatusRefused   Status = "REFUSED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

type Reservation struct {
	ID        ReservationID
	Buyer     user.ID
	ListingID listings.ListingID
	Seller    listings.SellerID
	Kind      Kind
	Status    Status
	SlotAt    time.Time // zero for purchase holds
	ExpiresAt time.Time
	DecidedAt *time.Time
	PaidAt    *time.Time
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	// ActiveByBuyerAndListing returns the buyer's non-terminal reservation on
	// the listing, or ErrNotFound.
	ActiveByBuyerAndListing(ctx context.Context, buyer user.ID, listing listings.ListingID) (*Reservation, error)
	// ListActiveByListing returns all non-terminal reservations on a listing.
	ListActiveByListing(ctx context.Context, listing listings.ListingID) ([]*Reservation, error)
	// SlotTaken reports whether any non-terminal reservation already occupies
	// the exact slot on the listing.
	SlotTaken(ctx context.Context, listing listings.ListingID, slot time.Time) (bool, error)
	// ListExpired returns non-terminal reservations whose deadline passed.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*Reservation, error)
	// CountByStatus tallies reservations currently in any of the statuses.
	CountByStatus(ctx context.Context, statuses []Status) (int, error)
	ListByBuyer(ctx context.Context, buyer user.ID) ([]*Reservation, error)
	ListBySeller(ctx context.Context, seller listings.SellerID, statuses []Status) ([]*Reservation, error)
	ListSlotsByListing(ctx context.Context, listing listings.ListingID, from, to time.Time) ([]time.Time, error)
}

type CreateParams struct {
	ID        ReservationID
	Buyer     user.ID
	ListingID listings.ListingID
	Seller    listings.SellerID
	Kind      Kind
	SlotAt    time.Time
	HoldFor   time.Duration
	Now       time.Time
}

func New(params CreateParams) (*Reservation, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("reservation: id is required")
	}
	if strings.TrimSpace(string(params.Buyer)) == "" {
		return nil, errors.New("reservation: buyer is required")
	}
	if strings.TrimSpace(string(params.ListingID)) == "" {
		return nil, errors.New("reservation: listing is required")
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	r := &Reservation{
		ID:        params.ID,
		Buyer:     params.Buyer,
		ListingID: params.ListingID,
		Seller:    params.Seller,
		Kind:      params.Kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch params.Kind {
	case KindPurchase:
		r.Status = StatusPending
	case KindVisit:
		if params.SlotAt.IsZero() {
			return nil, errors.New("reservation: visit requires a slot time")
		}
		r.Status = StatusScheduled
		r.SlotAt = params.SlotAt.UTC()
	default:
		return nil, errors.New("reservation: unknown kind")
	}
	if params.HoldFor > 0 {
		r.ExpiresAt = now.Add(params.HoldFor)
	}
	r.Record(RequestedEvent{ReservationID: r.ID, ListingID: r.ListingID, BuyerID: r.Buyer, Kind: r.Kind, SlotAt: r.SlotAt, At: now})
	return r, nil
}

// Approve moves a pending/scheduled reservation to its seller-approved state.
// A reservation that has already been decided cannot be approved again.
func (r *Reservation) Approve(now time.Time) error {
	if r.Status != StatusPending && r.Status != StatusScheduled {
		return ErrInvalidTransition
	}
	target := StatusReserved
	if r.Kind == KindVisit {
		target = StatusConfirmed
	}
	r.apply(target, now)
	r.stampDecided(now)
	r.Record(ApprovedEvent{ReservationID: r.ID, ListingID: r.ListingID, BuyerID: r.Buyer, Kind: r.Kind, At: r.UpdatedAt})
	return nil
}

// Refuse records the seller's negative decision. Like Approve it rejects a
// reservation that has already been decided.
func (r *Reservation) Refuse(now time.Time) error {
	if r.Status != StatusPending && r.Status != StatusScheduled {
		return ErrInvalidTransition
	}
	r.apply(StatusRefused, now)
	r.stampDecided(now)
	r.Record(RefusedEvent{ReservationID: r.ID, ListingID: r.ListingID, BuyerID: r.Buyer, At: r.UpdatedAt})
	return nil
}

// Cancel is buyer-initiated. Visits cannot be cancelled within leadTime of
// their slot.
func (r *Reservation) Cancel(now time.Time, leadTime time.Duration) error {
	if r.Status == StatusCancelled {
		return nil
	}
	if !CanTransition(r.Status, StatusCancelled) {
		return ErrInvalidTransition
	}
	if r.Kind == KindVisit && !r.SlotAt.IsZero() && now.UTC().After(r.SlotAt.Add(-leadTime)) {
		return ErrCancelTooLate
	}
	r.apply(StatusCancelled, now)
	r.Record(CancelledEvent{ReservationID: r.ID, ListingID: r.ListingID, BuyerID: r.Buyer, At: r.UpdatedAt})
	return nil
}

// CompleteCheckout finalizes a purchase hold. Calling it on an already-paid
// reservation is a no-op so retries stay side-effect free.
func (r *Reservation) CompleteCheckout(now time.Time) error {
	if r.Status == StatusPaid {
		return nil
	}
	if r.Status != StatusReserved {
		return ErrInvalidTransition
	}
	r.apply(StatusPaid, now)
	if r.PaidAt == nil {
		t := now.UTC()
		r.PaidAt = &t
	}
	r.Record(CheckoutCompletedEvent{ReservationID: r.ID, ListingID: r.ListingID, BuyerID: r.Buyer, At: r.UpdatedAt})
	return nil
}

// CompleteVisit closes a confirmed visit once its slot has passed.
func (r *Reservation) CompleteVisit(now time.Time) error {
	if r.Status == StatusCompleted {
		return nil
	}
	if r.Status != StatusConfirmed {
		return ErrInvalidTransition
	}
	if now.UTC().Before(r.SlotAt) {
		return ErrInvalidState
	}
	r.apply(StatusCompleted, now)
	r.Record(VisitCompletedEvent{ReservationID: r.ID, ListingID: r.ListingID, BuyerID: r.Buyer, At: r.UpdatedAt})
	return nil
}

// Expire lapses a stale reservation. Already-expired rows are no-ops; decided
// holds (reserved) also lapse when their deadline passed without checkout.
func (r *Reservation) Expire(now time.Time) error {
	if r.Status == StatusExpired {
		return nil
	}
	if !CanTransition(r.Status, StatusExpired) {
		return ErrInvalidTransition
	}
	if r.ExpiresAt.IsZero() || now.UTC().Before(r.ExpiresAt) {
		return ErrInvalidState
	}
	r.apply(StatusExpired, now)
	r.Record(ExpiredEvent{ReservationID: r.ID, ListingID: r.ListingID, BuyerID: r.Buyer, At: r.UpdatedAt})
	return nil
}

// ExpiryDue reports whether the sweep should lapse this reservation.
func (r *Reservation) ExpiryDue(now time.Time) bool {
	return r.Status.Active() && !r.ExpiresAt.IsZero() && !now.UTC().Before(r.ExpiresAt) &&
		CanTransition(r.Status, StatusExpired)
}

func (r *Reservation) apply(to Status, now time.Time) {
	r.Status = to
	r.UpdatedAt = now.UTC()
}

func (r *Reservation) stampDecided(now time.Time) {
	if r.DecidedAt == nil {
		t := now.UTC()
		r.DecidedAt = &t
	}
}
