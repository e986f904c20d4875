package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainreservation "automarket/internal/domain/reservation"
)

func TestSellerStatusFilter(t *testing.T) {
	assert.Equal(t,
		[]domainreservation.Status{domainreservation.StatusPending, domainreservation.StatusScheduled},
		sellerStatusFilter(""))
	assert.Nil(t, sellerStatusFilter("all"))
	assert.Equal(t, []domainreservation.Status{domainreservation.StatusPaid}, sellerStatusFilter("paid"))
}

func TestListBuyerReservations(t *testing.T) {
	f := newLifecycleFixture(t)
	f.requestPurchase(t, "buyer-1")

	h := &ListBuyerReservationsHandler{UoWFactory: f.factory}
	list, err := h.Handle(context.Background(), ListBuyerReservationsQuery{BuyerID: "buyer-1"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, string(f.listing.ID), list.Items[0].ListingID)

	empty, err := h.Handle(context.Background(), ListBuyerReservationsQuery{BuyerID: "buyer-2"})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}

func TestListSellerReservationsDefaultsToUndecided(t *testing.T) {
	f := newLifecycleFixture(t)
	requested := f.requestPurchase(t, "buyer-1")

	h := &ListSellerReservationsHandler{UoWFactory: f.factory}
	list, err := h.Handle(context.Background(), ListSellerReservationsQuery{SellerID: "seller-1"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	approve := &ApproveReservationHandler{Outbox: f.outbox}
	_, err = approve.Handle(f.unitCtx(t), ApproveReservationCommand{
		SellerID:      "seller-1",
		ReservationID: requested.ReservationID,
	})
	require.NoError(t, err)

	undecided, err := h.Handle(context.Background(), ListSellerReservationsQuery{SellerID: "seller-1"})
	require.NoError(t, err)
	assert.Empty(t, undecided.Items)

	all, err := h.Handle(context.Background(), ListSellerReservationsQuery{SellerID: "seller-1", Status: "ALL"})
	require.NoError(t, err)
	assert.Len(t, all.Items, 1)
}

func TestListingSlots(t *testing.T) {
	f := newLifecycleFixture(t)
	slot := futureVisitSlot()

	_, err := f.requestHandler().Handle(context.Background(), RequestReservationCommand{
		CommandID: "res-visit",
		ListingID: string(f.listing.ID),
		BuyerID:   "buyer-1",
		Kind:      string(domainreservation.KindVisit),
		SlotAt:    slot,
	})
	require.NoError(t, err)

	h := &ListingSlotsHandler{UoWFactory: f.factory}
	board, err := h.Handle(context.Background(), ListingSlotsQuery{
		ListingID: string(f.listing.ID),
		Day:       slot,
	})
	require.NoError(t, err)

	assert.Equal(t, slot.Format("2006-01-02"), board.Day)
	require.Len(t, board.Taken, 1)
	assert.True(t, board.Taken[0].Equal(slot))
	for _, free := range board.Free {
		assert.False(t, free.Equal(slot), "taken slot must not be offered as free")
	}
	assert.Len(t, board.Free, len(domainreservation.VisitHours)-1)
}

func TestListingSlotsRequiresDay(t *testing.T) {
	f := newLifecycleFixture(t)
	h := &ListingSlotsHandler{UoWFactory: f.factory}
	_, err := h.Handle(context.Background(), ListingSlotsQuery{ListingID: "lst-1", Day: time.Time{}})
	assert.Error(t, err)
}
