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
	domainlistings "automarket/internal/domain/listings"
	domainreservation "automarket/internal/domain/reservation"
)

const (
	approveReservationKey = "reservation.approve"
	rejectReservationKey  = "reservation.reject"
)

type ApproveReservationCommand struct {
	SellerID      string
	ReservationID string
}

func (c ApproveReservationCommand) Key() string { return approveReservationKey }

type RejectReservationCommand struct {
	SellerID      string
	ReservationID string
	Reason        string
}

func (c RejectReservationCommand) Key() string { return rejectReservationKey }

type DecisionResult struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type ApproveReservationHandler struct {
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Notifier policies.Notifier
	Logger   *slog.Logger
}

func (h *ApproveReservationHandler) Handle(ctx context.Context, cmd ApproveReservationCommand) (*DecisionResult, error) {
	unit, r, err := loadOwnedReservation(ctx, cmd.SellerID, cmd.ReservationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := r.Approve(now); err != nil {
		return nil, err
	}

	// Approving a purchase takes the exclusive hold on the listing. Competing
	// requests stay pending until they expire or the hold is released.
	if r.Kind == domainreservation.KindPurchase {
		listing, err := unit.Listings().ByID(ctx, r.ListingID)
		if err != nil {
			return nil, err
		}
		if err := listing.MarkReserved(now); err != nil {
			if errors.Is(err, domainlistings.ErrInvalidState) {
				return nil, domainreservation.ErrConflict
			}
			return nil, err
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return nil, err
		}
	}

	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := flushEvents(ctx, h.Outbox, h.Encoder, r); err != nil {
		return nil, err
	}
	if h.Notifier != nil {
		if err := h.Notifier.NotifyBuyer(ctx, policies.EventReservationApproved, r); err != nil {
			return nil, err
		}
	}
	if h.Logger != nil {
		h.Logger.Info("reservation approved", "reservation_id", r.ID, "listing_id", r.ListingID, "kind", r.Kind)
	}
	return &DecisionResult{ReservationID: string(r.ID), Status: string(r.Status)}, nil
}

type RejectReservationHandler struct {
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Notifier policies.Notifier
	Logger   *slog.Logger
}

func (h *RejectReservationHandler) Handle(ctx context.Context, cmd RejectReservationCommand) (*DecisionResult, error) {
	unit, r, err := loadOwnedReservation(ctx, cmd.SellerID, cmd.ReservationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := r.Refuse(now); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := flushEvents(ctx, h.Outbox, h.Encoder, r); err != nil {
		return nil, err
	}
	if h.Notifier != nil {
		if err := h.Notifier.NotifyBuyer(ctx, policies.EventReservationRefused, r); err != nil {
			return nil, err
		}
	}
	if h.Logger != nil {
		h.Logger.Info("reservation refused", "reservation_id", r.ID, "listing_id", r.ListingID, "reason", strings.TrimSpace(cmd.Reason))
	}
	return &DecisionResult{ReservationID: string(r.ID), Status: string(r.Status)}, nil
}

func loadOwnedReservation(ctx context.Context, sellerID, reservationID string) (uow.UnitOfWork, *domainreservation.Reservation, error) {
	if strings.TrimSpace(sellerID) == "" {
		return nil, nil, errors.New("seller id is required")
	}
	if strings.TrimSpace(reservationID) == "" {
		return nil, nil, errors.New("reservation id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, nil, uow.ErrUnitOfWorkMissing
	}
	r, err := unit.Reservations().ByID(ctx, domainreservation.ReservationID(reservationID))
	if err != nil {
		return nil, nil, err
	}
	if string(r.Seller) != sellerID {
		return nil, nil, domainreservation.ErrForbidden
	}
	return unit, r, nil
}

func flushEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, r *domainreservation.Reservation) error {
	pending := r.PendingEvents()
	if len(pending) == 0 {
		return nil
	}
	r.ClearEvents()
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	return outbox.RecordDomainEvents(ctx, box, encoder, pending)
}

var _ commands.Handler[ApproveReservationCommand, *DecisionResult] = (*ApproveReservationHandler)(nil)
var _ commands.Handler[RejectReservationCommand, *DecisionResult] = (*RejectReservationHandler)(nil)
