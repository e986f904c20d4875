package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "automarket/internal/app/outbox"
	"automarket/internal/app/policies"
	"automarket/internal/app/uow"
	domainlistings "automarket/internal/domain/listings"
	domainreservation "automarket/internal/domain/reservation"
	domainuser "automarket/internal/domain/user"
	"automarket/internal/infra/storage/memory"
)

type capturingOutbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func (o *capturingOutbox) Add(_ context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *capturingOutbox) Flush(context.Context) error { return nil }

func (o *capturingOutbox) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.records))
	for _, rec := range o.records {
		names = append(names, rec.Name)
	}
	return names
}

type countingNotifier struct {
	mu     sync.Mutex
	buyer  int
	seller int
}

func (n *countingNotifier) NotifyBuyer(context.Context, policies.NotificationEvent, *domainreservation.Reservation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.buyer++
	return nil
}

func (n *countingNotifier) NotifySeller(context.Context, policies.NotificationEvent, *domainreservation.Reservation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seller++
	return nil
}

type lifecycleFixture struct {
	factory      memory.Factory
	listings     *memory.ListingRepository
	reservations *memory.ReservationRepository
	purchases    *memory.PurchaseRepository
	outbox       *capturingOutbox
	listing      *domainlistings.Listing
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	f := &lifecycleFixture{
		listings:     memory.NewListingRepository(),
		reservations: memory.NewReservationRepository(),
		purchases:    memory.NewPurchaseRepository(),
		outbox:       &capturingOutbox{},
	}
	f.factory = memory.Factory{
		ListingsRepo:      f.listings,
		ReservationsRepo:  f.reservations,
		PurchasesRepo:     f.purchases,
		FavoritesRepo:     memory.NewFavoriteRepository(),
		NotificationsRepo: memory.NewNotificationRepository(),
	}

	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:     "lst-1",
		Seller: "seller-1",
		Title:  "Skoda Octavia 2.0 TDI",
		Vehicle: domainlistings.Vehicle{
			Brand:   "Skoda",
			Model:   "Octavia",
			Year:    2021,
			Fuel:    domainlistings.FuelDiesel,
			Gearbox: domainlistings.GearboxAutomatic,
		},
		PriceCents: 945000000,
	})
	require.NoError(t, err)
	listing.ClearEvents()
	require.NoError(t, f.listings.Save(context.Background(), listing))
	f.listing = listing
	return f
}

// unitCtx places a unit of work in the context the way the transaction
// middleware does for entry commands.
func (f *lifecycleFixture) unitCtx(t *testing.T) context.Context {
	t.Helper()
	unit, err := f.factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return uow.ContextWithUnitOfWork(context.Background(), unit)
}

func (f *lifecycleFixture) requestHandler() *RequestReservationHandler {
	return &RequestReservationHandler{
		UoWFactory:   f.factory,
		Outbox:       f.outbox,
		PurchaseHold: 48 * time.Hour,
		VisitHold:    24 * time.Hour,
	}
}

func (f *lifecycleFixture) requestPurchase(t *testing.T, buyer string) *RequestReservationResult {
	t.Helper()
	result, err := f.requestHandler().Handle(context.Background(), RequestReservationCommand{
		CommandID: "res-" + buyer,
		ListingID: string(f.listing.ID),
		BuyerID:   buyer,
		Kind:      string(domainreservation.KindPurchase),
	})
	require.NoError(t, err)
	return result
}

func futureVisitSlot() time.Time {
	day := time.Now().UTC().AddDate(0, 0, 2)
	return time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC)
}

func TestRequestPurchase(t *testing.T) {
	f := newLifecycleFixture(t)
	result := f.requestPurchase(t, "buyer-1")

	assert.Equal(t, string(domainreservation.StatusPending), result.Status)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), result.ExpiresAt, time.Minute)
	assert.Equal(t, []string{"reservation.requested"}, f.outbox.names())

	stored, err := f.reservations.ByID(context.Background(), domainreservation.ReservationID(result.ReservationID))
	require.NoError(t, err)
	assert.Empty(t, stored.PendingEvents(), "events must be drained into the outbox")
}

func TestRequestPurchaseTwiceConflicts(t *testing.T) {
	f := newLifecycleFixture(t)
	f.requestPurchase(t, "buyer-1")

	_, err := f.requestHandler().Handle(context.Background(), RequestReservationCommand{
		CommandID: "res-dup",
		ListingID: string(f.listing.ID),
		BuyerID:   "buyer-1",
		Kind:      string(domainreservation.KindPurchase),
	})
	assert.ErrorIs(t, err, domainreservation.ErrAlreadyRequested)
	assert.ErrorIs(t, err, domainreservation.ErrConflict)
}

func TestRequestOwnListingForbidden(t *testing.T) {
	f := newLifecycleFixture(t)
	_, err := f.requestHandler().Handle(context.Background(), RequestReservationCommand{
		CommandID: "res-own",
		ListingID: string(f.listing.ID),
		BuyerID:   "seller-1",
		Kind:      string(domainreservation.KindPurchase),
	})
	assert.ErrorIs(t, err, domainreservation.ErrForbidden)
}

func TestRequestDisabledListing(t *testing.T) {
	f := newLifecycleFixture(t)
	require.NoError(t, f.listing.Disable(time.Now(), "paused"))
	require.NoError(t, f.listings.Save(context.Background(), f.listing))

	_, err := f.requestHandler().Handle(context.Background(), RequestReservationCommand{
		CommandID: "res-1",
		ListingID: string(f.listing.ID),
		BuyerID:   "buyer-1",
		Kind:      string(domainreservation.KindPurchase),
	})
	assert.ErrorIs(t, err, domainlistings.ErrNotActive)
}

func TestRequestVisitSlotValidation(t *testing.T) {
	f := newLifecycleFixture(t)
	h := f.requestHandler()
	base := RequestReservationCommand{
		ListingID: string(f.listing.ID),
		BuyerID:   "buyer-1",
		Kind:      string(domainreservation.KindVisit),
	}

	offGrid := base
	offGrid.CommandID = "res-offgrid"
	offGrid.SlotAt = futureVisitSlot().Add(3 * time.Hour) // 13:00 is not a visiting hour
	_, err := h.Handle(context.Background(), offGrid)
	assert.ErrorIs(t, err, domainreservation.ErrSlotOffGrid)

	past := base
	past.CommandID = "res-past"
	past.SlotAt = time.Date(2020, 3, 2, 10, 0, 0, 0, time.UTC)
	_, err = h.Handle(context.Background(), past)
	assert.ErrorIs(t, err, domainreservation.ErrSlotInPast)
}

func TestRequestVisitSlotTaken(t *testing.T) {
	f := newLifecycleFixture(t)
	slot := futureVisitSlot()
	h := f.requestHandler()

	first, err := h.Handle(context.Background(), RequestReservationCommand{
		CommandID: "res-first",
		ListingID: string(f.listing.ID),
		BuyerID:   "buyer-1",
		Kind:      string(domainreservation.KindVisit),
		SlotAt:    slot,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainreservation.StatusScheduled), first.Status)

	_, err = h.Handle(context.Background(), RequestReservationCommand{
		CommandID: "res-second",
		ListingID: string(f.listing.ID),
		BuyerID:   "buyer-2",
		Kind:      string(domainreservation.KindVisit),
		SlotAt:    slot,
	})
	assert.ErrorIs(t, err, domainreservation.ErrSlotTaken)
}

func TestApprovePurchaseTakesExclusiveHold(t *testing.T) {
	f := newLifecycleFixture(t)
	first := f.requestPurchase(t, "buyer-1")
	second := f.requestPurchase(t, "buyer-2")

	approve := &ApproveReservationHandler{Outbox: f.outbox}
	result, err := approve.Handle(f.unitCtx(t), ApproveReservationCommand{
		SellerID:      "seller-1",
		ReservationID: first.ReservationID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainreservation.StatusReserved), result.Status)
	assert.Equal(t, domainlistings.Reserved, f.listing.Availability)

	// The competing pending request cannot be approved while the hold stands.
	_, err = approve.Handle(f.unitCtx(t), ApproveReservationCommand{
		SellerID:      "seller-1",
		ReservationID: second.ReservationID,
	})
	assert.ErrorIs(t, err, domainreservation.ErrConflict)
}

func TestApproveAlreadyDecidedPurchase(t *testing.T) {
	f := newLifecycleFixture(t)
	requested := f.requestPurchase(t, "buyer-1")
	notifier := &countingNotifier{}

	approve := &ApproveReservationHandler{Outbox: f.outbox, Notifier: notifier}
	_, err := approve.Handle(f.unitCtx(t), ApproveReservationCommand{
		SellerID:      "seller-1",
		ReservationID: requested.ReservationID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.buyer)

	_, err = approve.Handle(f.unitCtx(t), ApproveReservationCommand{
		SellerID:      "seller-1",
		ReservationID: requested.ReservationID,
	})
	assert.ErrorIs(t, err, domainreservation.ErrInvalidTransition)
	assert.Equal(t, domainlistings.Reserved, f.listing.Availability, "the existing hold stays in place")
	assert.Equal(t, 1, notifier.buyer, "the buyer is not notified a second time")
}

func TestApproveAlreadyDecidedVisit(t *testing.T) {
	f := newLifecycleFixture(t)
	requested, err := f.requestHandler().Handle(context.Background(), RequestReservationCommand{
		CommandID: "res-visit",
		ListingID: string(f.listing.ID),
		BuyerID:   "buyer-1",
		Kind:      string(domainreservation.KindVisit),
		SlotAt:    futureVisitSlot(),
	})
	require.NoError(t, err)

	notifier := &countingNotifier{}
	approve := &ApproveReservationHandler{Outbox: f.outbox, Notifier: notifier}
	result, err := approve.Handle(f.unitCtx(t), ApproveReservationCommand{
		SellerID:      "seller-1",
		ReservationID: requested.ReservationID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainreservation.StatusConfirmed), result.Status)

	_, err = approve.Handle(f.unitCtx(t), ApproveReservationCommand{
		SellerID:      "seller-1",
		ReservationID: requested.ReservationID,
	})
	assert.ErrorIs(t, err, domainreservation.ErrInvalidTransition)
	assert.Equal(t, 1, notifier.buyer, "the buyer is not notified a second time")
}

func TestRejectAlreadyDecided(t *testing.T) {
	f := newLifecycleFixture(t)
	requested := f.requestPurchase(t, "buyer-1")

	reject := &RejectReservationHandler{Outbox: f.outbox}
	_, err := reject.Handle(f.unitCtx(t), RejectReservationCommand{
		SellerID:      "seller-1",
		ReservationID: requested.ReservationID,
	})
	require.NoError(t, err)

	_, err = reject.Handle(f.unitCtx(t), RejectReservationCommand{
		SellerID:      "seller-1",
		ReservationID: requested.ReservationID,
	})
	assert.ErrorIs(t, err, domainreservation.ErrInvalidTransition)
}

func TestApproveByWrongSeller(t *testing.T) {
	f := newLifecycleFixture(t)
	result := f.requestPurchase(t, "buyer-1")

	approve := &ApproveReservationHandler{Outbox: f.outbox}
	_, err := approve.Handle(f.unitCtx(t), ApproveReservationCommand{
		SellerID:      "someone-else",
		ReservationID: result.ReservationID,
	})
	assert.ErrorIs(t, err, domainreservation.ErrForbidden)
}

func TestRejectReservation(t *testing.T) {
	f := newLifecycleFixture(t)
	requested := f.requestPurchase(t, "buyer-1")

	reject := &RejectReservationHandler{Outbox: f.outbox}
	result, err := reject.Handle(f.unitCtx(t), RejectReservationCommand{
		SellerID:      "seller-1",
		ReservationID: requested.ReservationID,
		Reason:        "already promised",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainreservation.StatusRefused), result.Status)
	assert.Equal(t, domainlistings.Available, f.listing.Availability)
}

func TestCheckoutFlow(t *testing.T) {
	f := newLifecycleFixture(t)
	requested := f.requestPurchase(t, "buyer-1")

	approve := &ApproveReservationHandler{Outbox: f.outbox}
	_, err := approve.Handle(f.unitCtx(t), ApproveReservationCommand{
		SellerID:      "seller-1",
		ReservationID: requested.ReservationID,
	})
	require.NoError(t, err)

	notifier := &countingNotifier{}
	checkout := &CompleteCheckoutHandler{Outbox: f.outbox, Notifier: notifier}
	result, err := checkout.Handle(f.unitCtx(t), CompleteCheckoutCommand{
		BuyerID:       "buyer-1",
		ReservationID: requested.ReservationID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainreservation.StatusPaid), result.Status)
	assert.Equal(t, f.listing.PriceCents, result.AmountCents)
	require.NotNil(t, result.PaidAt)
	assert.Equal(t, domainlistings.Sold, f.listing.Availability)
	assert.Equal(t, 1, notifier.buyer)
	assert.Equal(t, 1, notifier.seller)

	purchase, err := f.purchases.ByReservation(context.Background(), requested.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, f.listing.PriceCents, purchase.AmountCents)

	// Retrying reports the recorded purchase instead of writing a second one,
	// and never re-sends the checkout notifications.
	again, err := checkout.Handle(f.unitCtx(t), CompleteCheckoutCommand{
		BuyerID:       "buyer-1",
		ReservationID: requested.ReservationID,
	})
	require.NoError(t, err)
	assert.Equal(t, result.AmountCents, again.AmountCents)
	assert.Equal(t, result.PaidAt.Unix(), again.PaidAt.Unix())
	assert.Equal(t, 1, notifier.buyer)
	assert.Equal(t, 1, notifier.seller)
}

func TestCheckoutBeforeApproval(t *testing.T) {
	f := newLifecycleFixture(t)
	requested := f.requestPurchase(t, "buyer-1")

	checkout := &CompleteCheckoutHandler{Outbox: f.outbox}
	_, err := checkout.Handle(f.unitCtx(t), CompleteCheckoutCommand{
		BuyerID:       "buyer-1",
		ReservationID: requested.ReservationID,
	})
	assert.ErrorIs(t, err, domainreservation.ErrInvalidTransition)
}

func TestCancelReleasesHold(t *testing.T) {
	f := newLifecycleFixture(t)
	requested := f.requestPurchase(t, "buyer-1")

	approve := &ApproveReservationHandler{Outbox: f.outbox}
	_, err := approve.Handle(f.unitCtx(t), ApproveReservationCommand{
		SellerID:      "seller-1",
		ReservationID: requested.ReservationID,
	})
	require.NoError(t, err)
	assert.Equal(t, domainlistings.Reserved, f.listing.Availability)

	cancel := &CancelReservationHandler{Outbox: f.outbox, CancelLeadTime: 2 * time.Hour}
	result, err := cancel.Handle(f.unitCtx(t), CancelReservationCommand{
		BuyerID:       "buyer-1",
		ReservationID: requested.ReservationID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainreservation.StatusCancelled), result.Status)
	assert.Equal(t, domainlistings.Available, f.listing.Availability)
}

func TestCancelByWrongBuyer(t *testing.T) {
	f := newLifecycleFixture(t)
	requested := f.requestPurchase(t, "buyer-1")

	cancel := &CancelReservationHandler{Outbox: f.outbox}
	_, err := cancel.Handle(f.unitCtx(t), CancelReservationCommand{
		BuyerID:       "buyer-2",
		ReservationID: requested.ReservationID,
	})
	assert.ErrorIs(t, err, domainreservation.ErrForbidden)
}

func TestExpireStaleSweep(t *testing.T) {
	f := newLifecycleFixture(t)
	now := time.Now().UTC()

	stale, err := domainreservation.New(domainreservation.CreateParams{
		ID:        "res-stale",
		Buyer:     domainuser.ID("buyer-1"),
		ListingID: f.listing.ID,
		Seller:    f.listing.Seller,
		Kind:      domainreservation.KindPurchase,
		HoldFor:   time.Minute,
		Now:       now.Add(-time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, stale.Approve(now.Add(-time.Hour)))
	stale.ClearEvents()
	require.NoError(t, f.reservations.Save(context.Background(), stale))

	fresh := f.requestPurchase(t, "buyer-2")

	require.NoError(t, f.listing.MarkReserved(now.Add(-time.Hour)))
	require.NoError(t, f.listings.Save(context.Background(), f.listing))

	notifier := &countingNotifier{}
	sweep := &ExpireStaleHandler{UoWFactory: f.factory, Outbox: f.outbox, Notifier: notifier}
	result, err := sweep.Handle(context.Background(), ExpireStaleCommand{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 1, notifier.buyer)

	expired, err := f.reservations.ByID(context.Background(), "res-stale")
	require.NoError(t, err)
	assert.Equal(t, domainreservation.StatusExpired, expired.Status)
	assert.Equal(t, domainlistings.Available, f.listing.Availability, "expiring the hold reopens the listing")

	untouched, err := f.reservations.ByID(context.Background(), domainreservation.ReservationID(fresh.ReservationID))
	require.NoError(t, err)
	assert.Equal(t, domainreservation.StatusPending, untouched.Status)

	// A second sweep finds nothing: the lapsed row is terminal, the fresh one
	// is still inside its hold, and nobody is notified again.
	second, err := sweep.Handle(context.Background(), ExpireStaleCommand{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Expired)
	assert.Equal(t, 0, second.Skipped)
	assert.Equal(t, 1, notifier.buyer)

	still, err := f.reservations.ByID(context.Background(), "res-stale")
	require.NoError(t, err)
	assert.Equal(t, domainreservation.StatusExpired, still.Status)
	assert.Equal(t, domainlistings.Available, f.listing.Availability)
}
