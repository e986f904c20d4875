package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"automarket/internal/app/dto"
	handlersupport "automarket/internal/app/handlers/support"
	"automarket/internal/app/queries"
	"automarket/internal/app/uow"
	domainlistings "automarket/internal/domain/listings"
	domainreservation "automarket/internal/domain/reservation"
	domainuser "automarket/internal/domain/user"
)

const (
	listBuyerReservationsKey  = "buyer.reservations.list"
	listSellerReservationsKey = "seller.reservations.list"
	listingSlotsKey           = "reservation.slots"
)

type ListBuyerReservationsQuery struct {
	BuyerID string
}

func (q ListBuyerReservationsQuery) Key() string { return listBuyerReservationsKey }

type ListBuyerReservationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBuyerReservationsHandler) Handle(ctx context.Context, q ListBuyerReservationsQuery) (dto.ReservationList, error) {
	buyerID := strings.TrimSpace(q.BuyerID)
	if buyerID == "" {
		return dto.ReservationList{}, errors.New("buyer id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Reservations().ListByBuyer(execCtx, domainuser.ID(buyerID))
	if err != nil {
		return dto.ReservationList{}, err
	}
	return dto.MapReservations(items), nil
}

type ListSellerReservationsQuery struct {
	SellerID string
	Status   string
}

func (q ListSellerReservationsQuery) Key() string { return listSellerReservationsKey }

type ListSellerReservationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListSellerReservationsHandler) Handle(ctx context.Context, q ListSellerReservationsQuery) (dto.ReservationList, error) {
	sellerID := strings.TrimSpace(q.SellerID)
	if sellerID == "" {
		return dto.ReservationList{}, errors.New("seller id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	statuses := sellerStatusFilter(q.Status)
	items, err := unit.Reservations().ListBySeller(execCtx, domainlistings.SellerID(sellerID), statuses)
	if err != nil {
		return dto.ReservationList{}, err
	}
	return dto.MapReservations(items), nil
}

// sellerStatusFilter defaults to the two awaiting-decision statuses; "ALL"
// lifts the filter entirely.
func sellerStatusFilter(raw string) []domainreservation.Status {
	filter := strings.ToUpper(strings.TrimSpace(raw))
	switch filter {
	case "":
		return []domainreservation.Status{domainreservation.StatusPending, domainreservation.StatusScheduled}
	case "ALL":
		return nil
	default:
		return []domainreservation.Status{domainreservation.Status(filter)}
	}
}

type ListingSlotsQuery struct {
	ListingID string
	Day       time.Time
}

func (q ListingSlotsQuery) Key() string { return listingSlotsKey }

type ListingSlotsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListingSlotsHandler) Handle(ctx context.Context, q ListingSlotsQuery) (dto.SlotBoard, error) {
	listingID := strings.TrimSpace(q.ListingID)
	if listingID == "" {
		return dto.SlotBoard{}, errors.New("listing id is required")
	}
	if q.Day.IsZero() {
		return dto.SlotBoard{}, errors.New("day is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SlotBoard{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	day := q.Day.UTC().Truncate(24 * time.Hour)
	from := day
	to := day.Add(24 * time.Hour)
	taken, err := unit.Reservations().ListSlotsByListing(execCtx, domainlistings.ListingID(listingID), from, to)
	if err != nil {
		return dto.SlotBoard{}, err
	}

	now := time.Now().UTC()
	free := domainreservation.FreeSlots(day, taken, now)
	return dto.SlotBoard{
		ListingID: listingID,
		Day:       day.Format("2006-01-02"),
		Taken:     taken,
		Free:      free,
	}, nil
}

var _ queries.Handler[ListBuyerReservationsQuery, dto.ReservationList] = (*ListBuyerReservationsHandler)(nil)
var _ queries.Handler[ListSellerReservationsQuery, dto.ReservationList] = (*ListSellerReservationsHandler)(nil)
var _ queries.Handler[ListingSlotsQuery, dto.SlotBoard] = (*ListingSlotsHandler)(nil)
