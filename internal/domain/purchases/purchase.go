package purchases

import (
	"context"
	"errors"
	"strings"
	"time"

	"automarket/internal/domain/listings"
	"automarket/internal/domain/user"
)

var ErrNotFound = errors.New("purchases: not found")

type PurchaseID string

// Purchase is the immutable record written when a reservation checkout
// completes. It exists for history and admin statistics; the reservation row
// stays the lifecycle authority.
type Purchase struct {
	ID            PurchaseID
	ReservationID string
	Buyer         user.ID
	ListingID     listings.ListingID
	Seller        listings.SellerID
	AmountCents   int64
	PurchasedAt   time.Time
}

type Repository interface {
	ByReservation(ctx context.Context, reservationID string) (*Purchase, error)
	Save(ctx context.Context, p *Purchase) error
	ListSince(ctx context.Context, since time.Time) ([]*Purchase, error)
}

type CreateParams struct {
	ID            PurchaseID
	ReservationID string
	Buyer         user.ID
	ListingID     listings.ListingID
	Seller        listings.SellerID
	AmountCents   int64
	Now           time.Time
}

func New(params CreateParams) (*Purchase, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("purchases: id is required")
	}
	if strings.TrimSpace(params.ReservationID) == "" {
		return nil, errors.New("purchases: reservation id is required")
	}
	if params.AmountCents < 0 {
		return nil, errors.New("purchases: amount must be non-negative")
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Purchase{
		ID:            params.ID,
		ReservationID: params.ReservationID,
		Buyer:         params.Buyer,
		ListingID:     params.ListingID,
		Seller:        params.Seller,
		AmountCents:   params.AmountCents,
		PurchasedAt:   now.UTC(),
	}, nil
}
