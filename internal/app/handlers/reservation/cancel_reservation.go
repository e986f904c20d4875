package reservation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"automarket/internal/app/commands"
	"automarket/internal/app/outbox"
	"automarket/internal/app/policies"
	"automarket/internal/app/uow"
	domainreservation "automarket/internal/domain/reservation"
)

const cancelReservationKey = "reservation.cancel"

type CancelReservationCommand struct {
	BuyerID       string
	ReservationID string
}

func (c CancelReservationCommand) Key() string { return cancelReservationKey }

type CancelReservationHandler struct {
	Outbox         outbox.Outbox
	Encoder        outbox.EventEncoder
	Notifier       policies.Notifier
	CancelLeadTime time.Duration
	Logger         *slog.Logger
}

func (h *CancelReservationHandler) Handle(ctx context.Context, cmd CancelReservationCommand) (*DecisionResult, error) {
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
	heldListing := r.Status.HoldsListing()
	if err := r.Cancel(now, h.CancelLeadTime); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}
	if heldListing {
		if err := releaseListingHold(ctx, unit, r, now); err != nil {
			return nil, err
		}
	}
	if err := flushEvents(ctx, h.Outbox, h.Encoder, r); err != nil {
		return nil, err
	}
	if h.Notifier != nil {
		if err := h.Notifier.NotifySeller(ctx, policies.EventReservationCancelled, r); err != nil {
			return nil, err
		}
	}
	if h.Logger != nil {
		h.Logger.Info("reservation cancelled", "reservation_id", r.ID, "listing_id", r.ListingID, "released_hold", heldListing)
	}
	return &DecisionResult{ReservationID: string(r.ID), Status: string(r.Status)}, nil
}

// releaseListingHold returns a listing to the open market after the hold that
// reserved it lapsed. Sold listings are never reopened.
func releaseListingHold(ctx context.Context, unit uow.UnitOfWork, r *domainreservation.Reservation, now time.Time) error {
	listing, err := unit.Listings().ByID(ctx, r.ListingID)
	if err != nil {
		return err
	}
	if err := listing.MarkAvailable(now); err != nil {
		return err
	}
	return unit.Listings().Save(ctx, listing)
}

var _ commands.Handler[CancelReservationCommand, *DecisionResult] = (*CancelReservationHandler)(nil)
