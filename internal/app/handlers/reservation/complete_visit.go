package reservation

import (
	"context"
	"log/slog"
	"time"

	"automarket/internal/app/commands"
	"automarket/internal/app/outbox"
)

const completeVisitKey = "reservation.complete_visit"

type CompleteVisitCommand struct {
	SellerID      string
	ReservationID string
}

func (c CompleteVisitCommand) Key() string { return completeVisitKey }

type CompleteVisitHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *CompleteVisitHandler) Handle(ctx context.Context, cmd CompleteVisitCommand) (*DecisionResult, error) {
	unit, r, err := loadOwnedReservation(ctx, cmd.SellerID, cmd.ReservationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := r.CompleteVisit(now); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := flushEvents(ctx, h.Outbox, h.Encoder, r); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("visit completed", "reservation_id", r.ID, "listing_id", r.ListingID)
	}
	return &DecisionResult{ReservationID: string(r.ID), Status: string(r.Status)}, nil
}

var _ commands.Handler[CompleteVisitCommand, *DecisionResult] = (*CompleteVisitHandler)(nil)
