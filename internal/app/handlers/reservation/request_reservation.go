package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"automarket/internal/app/commands"
	"automarket/internal/app/middleware"
	"automarket/internal/app/outbox"
	"automarket/internal/app/policies"
	"automarket/internal/app/uow"
	domainlistings "automarket/internal/domain/listings"
	domainreservation "automarket/internal/domain/reservation"
	domainuser "automarket/internal/domain/user"
)

const requestReservationKey = "reservation.request"

var ErrUnitOfWorkRequired = errors.New("reservation: unit of work required")

type RequestReservationCommand struct {
	CommandID       string
	ListingID       string
	BuyerID         string
	Kind            string
	SlotAt          time.Time
	IdempotencyKeyV string
}

func (c RequestReservationCommand) Key() string { return requestReservationKey }

func (c RequestReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestReservationCommand) ResultPrototype() any { return &RequestReservationResult{} }

func (c RequestReservationCommand) Validate() error {
	if strings.TrimSpace(c.CommandID) == "" {
		return errors.New("command id is required")
	}
	if strings.TrimSpace(c.ListingID) == "" {
		return errors.New("listing id is required")
	}
	if strings.TrimSpace(c.BuyerID) == "" {
		return errors.New("buyer id is required")
	}
	switch domainreservation.Kind(c.Kind) {
	case domainreservation.KindPurchase, domainreservation.KindVisit:
		return nil
	default:
		return errors.New("kind must be purchase or visit")
	}
}

type RequestReservationResult struct {
	ReservationID string    `json:"reservation_id"`
	Status        string    `json:"status"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type RequestReservationHandler struct {
	UoWFactory   uow.UoWFactory
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Notifier     policies.Notifier
	PurchaseHold time.Duration
	VisitHold    time.Duration
}

func (h *RequestReservationHandler) Handle(ctx context.Context, cmd RequestReservationCommand) (*RequestReservationResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	now := time.Now().UTC()
	kind := domainreservation.Kind(cmd.Kind)

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if !listing.Acceptable() {
		return nil, domainlistings.ErrNotActive
	}
	if string(listing.Seller) == cmd.BuyerID {
		return nil, domainreservation.ErrForbidden
	}
	if kind == domainreservation.KindPurchase && !listing.Purchasable() {
		return nil, domainlistings.ErrInvalidState
	}

	buyer := domainuser.ID(cmd.BuyerID)
	if _, err := unit.Reservations().ActiveByBuyerAndListing(ctx, buyer, listing.ID); err == nil {
		return nil, domainreservation.ErrAlreadyRequested
	} else if !errors.Is(err, domainreservation.ErrNotFound) {
		return nil, err
	}

	hold := h.PurchaseHold
	if kind == domainreservation.KindVisit {
		hold = h.VisitHold
		slot := cmd.SlotAt.UTC()
		if !domainreservation.ValidSlot(slot) {
			return nil, domainreservation.ErrSlotOffGrid
		}
		if !slot.After(now) {
			return nil, domainreservation.ErrSlotInPast
		}
		taken, err := unit.Reservations().SlotTaken(ctx, listing.ID, slot)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domainreservation.ErrSlotTaken
		}
	}

	r, err := domainreservation.New(domainreservation.CreateParams{
		ID:        domainreservation.ReservationID(cmd.CommandID),
		Buyer:     buyer,
		ListingID: listing.ID,
		Seller:    listing.Seller,
		Kind:      kind,
		SlotAt:    cmd.SlotAt,
		HoldFor:   hold,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}

	pending := r.PendingEvents()
	r.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if h.Notifier != nil {
		if err := h.Notifier.NotifySeller(ctx, policies.EventReservationRequested, r); err != nil {
			return nil, err
		}
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &RequestReservationResult{
		ReservationID: string(r.ID),
		Status:        string(r.Status),
		ExpiresAt:     r.ExpiresAt,
	}, nil
}

func (h *RequestReservationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestReservationCommand, *RequestReservationResult] = (*RequestReservationHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestReservationCommand)(nil)
