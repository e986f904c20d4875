package reservation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"automarket/internal/app/commands"
	"automarket/internal/app/middleware"
	"automarket/internal/app/outbox"
	"automarket/internal/app/policies"
	"automarket/internal/app/uow"
	domainpurchases "automarket/internal/domain/purchases"
	domainreservation "automarket/internal/domain/reservation"
)

const completeCheckoutKey = "reservation.checkout"

type CompleteCheckoutCommand struct {
	BuyerID         string
	ReservationID   string
	IdempotencyKeyV string
}

func (c CompleteCheckoutCommand) Key() string { return completeCheckoutKey }

func (c CompleteCheckoutCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CompleteCheckoutCommand) ResultPrototype() any { return &CheckoutResult{} }

type CheckoutResult struct {
	ReservationID string     `json:"reservation_id"`
	Status        string     `json:"status"`
	AmountCents   int64      `json:"amount_cents"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type CompleteCheckoutHandler struct {
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Notifier policies.Notifier
	Logger   *slog.Logger
}

func (h *CompleteCheckoutHandler) Handle(ctx context.Context, cmd CompleteCheckoutCommand) (*CheckoutResult, error) {
	if strings.TrimSpace(cmd.BuyerID) == "" {
		return nil, errors.New("buyer id is required")
	}
	if strings.TrimSpace(cmd.ReservationID) == "" {
		return nil, errors.New("reservation id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	r, err := unit.Reservations().ByID(ctx, domainreservation.ReservationID(cmd.ReservationID))
	if err != nil {
		return nil, err
	}
	if string(r.Buyer) != cmd.BuyerID {
		return nil, domainreservation.ErrForbidden
	}

	now := time.Now().UTC()
	// Re-running checkout on a paid reservation reports the recorded purchase
	// instead of writing a second one.
	if r.Status == domainreservation.StatusPaid {
		purchase, err := unit.Purchases().ByReservation(ctx, string(r.ID))
		if err != nil {
			return nil, err
		}
		return &CheckoutResult{
			ReservationID: string(r.ID),
			Status:        string(r.Status),
			AmountCents:   purchase.AmountCents,
			PaidAt:        r.PaidAt,
		}, nil
	}

	if err := r.CompleteCheckout(now); err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, r.ListingID)
	if err != nil {
		return nil, err
	}
	if err := listing.MarkSold(now); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	purchase, err := domainpurchases.New(domainpurchases.CreateParams{
		ID:            domainpurchases.PurchaseID(uuid.NewString()),
		ReservationID: string(r.ID),
		Buyer:         r.Buyer,
		ListingID:     r.ListingID,
		Seller:        r.Seller,
		AmountCents:   listing.PriceCents,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Purchases().Save(ctx, purchase); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := flushEvents(ctx, h.Outbox, h.Encoder, r); err != nil {
		return nil, err
	}
	if h.Notifier != nil {
		if err := h.Notifier.NotifyBuyer(ctx, policies.EventCheckoutCompleted, r); err != nil {
			return nil, err
		}
		if err := h.Notifier.NotifySeller(ctx, policies.EventCheckoutCompleted, r); err != nil {
			return nil, err
		}
	}
	if h.Logger != nil {
		h.Logger.Info("checkout completed", "reservation_id", r.ID, "listing_id", r.ListingID, "amount_cents", purchase.AmountCents)
	}

	return &CheckoutResult{
		ReservationID: string(r.ID),
		Status:        string(r.Status),
		AmountCents:   purchase.AmountCents,
		PaidAt:        r.PaidAt,
	}, nil
}

var _ commands.Handler[CompleteCheckoutCommand, *CheckoutResult] = (*CompleteCheckoutHandler)(nil)
var _ middleware.IdempotentCommand = (*CompleteCheckoutCommand)(nil)
