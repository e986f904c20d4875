package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automarket/internal/domain/listings"
	"automarket/internal/domain/user"
)

var testNow = time.Date(2030, 5, 20, 8, 0, 0, 0, time.UTC)

func newPurchase(t *testing.T) *Reservation {
	t.Helper()
	r, err := New(CreateParams{
		ID:        "res-1",
		Buyer:     user.ID("buyer-1"),
		ListingID: listings.ListingID("lst-1"),
		Seller:    listings.SellerID("seller-1"),
		Kind:      KindPurchase,
		HoldFor:   48 * time.Hour,
		Now:       testNow,
	})
	require.NoError(t, err)
	return r
}

func newVisit(t *testing.T, slot time.Time) *Reservation {
	t.Helper()
	r, err := New(CreateParams{
		ID:        "res-2",
		Buyer:     user.ID("buyer-1"),
		ListingID: listings.ListingID("lst-1"),
		Seller:    listings.SellerID("seller-1"),
		Kind:      KindVisit,
		SlotAt:    slot,
		HoldFor:   24 * time.Hour,
		Now:       testNow,
	})
	require.NoError(t, err)
	return r
}

func TestNewPurchaseStartsPending(t *testing.T) {
	r := newPurchase(t)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, testNow.Add(48*time.Hour), r.ExpiresAt)
	assert.Len(t, r.PendingEvents(), 1)
}

func TestNewVisitRequiresSlot(t *testing.T) {
	_, err := New(CreateParams{
		ID:        "res-3",
		Buyer:     user.ID("buyer-1"),
		ListingID: listings.ListingID("lst-1"),
		Kind:      KindVisit,
		Now:       testNow,
	})
	require.Error(t, err)
}

func TestNewVisitStartsScheduled(t *testing.T) {
	slot := time.Date(2030, 5, 21, 10, 0, 0, 0, time.UTC)
	r := newVisit(t, slot)
	assert.Equal(t, StatusScheduled, r.Status)
	assert.True(t, r.SlotAt.Equal(slot))
}

func TestApprovePurchase(t *testing.T) {
	r := newPurchase(t)
	require.NoError(t, r.Approve(testNow.Add(time.Hour)))
	assert.Equal(t, StatusReserved, r.Status)
	require.NotNil(t, r.DecidedAt)

	// A second approval is rejected and must not stamp a second decision.
	decided := *r.DecidedAt
	assert.ErrorIs(t, r.Approve(testNow.Add(2*time.Hour)), ErrInvalidTransition)
	assert.Equal(t, decided, *r.DecidedAt)
	assert.Equal(t, StatusReserved, r.Status)
}

func TestDecideTwiceFails(t *testing.T) {
	approved := newPurchase(t)
	require.NoError(t, approved.Approve(testNow))
	assert.ErrorIs(t, approved.Refuse(testNow.Add(time.Hour)), ErrInvalidTransition)

	refused := newPurchase(t)
	require.NoError(t, refused.Refuse(testNow))
	assert.ErrorIs(t, refused.Refuse(testNow.Add(time.Hour)), ErrInvalidTransition)
	assert.ErrorIs(t, refused.Approve(testNow.Add(time.Hour)), ErrInvalidTransition)

	visit := newVisit(t, time.Date(2030, 5, 21, 10, 0, 0, 0, time.UTC))
	require.NoError(t, visit.Approve(testNow))
	assert.ErrorIs(t, visit.Approve(testNow.Add(time.Hour)), ErrInvalidTransition)
	assert.Equal(t, StatusConfirmed, visit.Status)
}

func TestApproveVisitConfirms(t *testing.T) {
	r := newVisit(t, time.Date(2030, 5, 21, 10, 0, 0, 0, time.UTC))
	require.NoError(t, r.Approve(testNow))
	assert.Equal(t, StatusConfirmed, r.Status)
}

func TestApproveAfterRefuseFails(t *testing.T) {
	r := newPurchase(t)
	require.NoError(t, r.Refuse(testNow))
	assert.ErrorIs(t, r.Approve(testNow), ErrInvalidTransition)
}

func TestCancelPurchaseHold(t *testing.T) {
	r := newPurchase(t)
	require.NoError(t, r.Approve(testNow))
	require.NoError(t, r.Cancel(testNow.Add(time.Hour), 2*time.Hour))
	assert.Equal(t, StatusCancelled, r.Status)
}

func TestCancelVisitWithinLeadTime(t *testing.T) {
	slot := time.Date(2030, 5, 21, 10, 0, 0, 0, time.UTC)
	r := newVisit(t, slot)

	err := r.Cancel(slot.Add(-time.Hour), 2*time.Hour)
	assert.ErrorIs(t, err, ErrCancelTooLate)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StatusScheduled, r.Status)

	require.NoError(t, r.Cancel(slot.Add(-3*time.Hour), 2*time.Hour))
	assert.Equal(t, StatusCancelled, r.Status)
}

func TestCancelPaidFails(t *testing.T) {
	r := newPurchase(t)
	require.NoError(t, r.Approve(testNow))
	require.NoError(t, r.CompleteCheckout(testNow))
	assert.ErrorIs(t, r.Cancel(testNow, 0), ErrInvalidTransition)
}

func TestCompleteCheckout(t *testing.T) {
	r := newPurchase(t)
	require.NoError(t, r.Approve(testNow))
	require.NoError(t, r.CompleteCheckout(testNow.Add(time.Hour)))
	assert.Equal(t, StatusPaid, r.Status)
	require.NotNil(t, r.PaidAt)

	paid := *r.PaidAt
	require.NoError(t, r.CompleteCheckout(testNow.Add(2*time.Hour)))
	assert.Equal(t, paid, *r.PaidAt)
}

func TestCompleteCheckoutBeforeApprovalFails(t *testing.T) {
	r := newPurchase(t)
	assert.ErrorIs(t, r.CompleteCheckout(testNow), ErrInvalidTransition)
}

func TestCompleteVisit(t *testing.T) {
	slot := time.Date(2030, 5, 21, 10, 0, 0, 0, time.UTC)
	r := newVisit(t, slot)
	require.NoError(t, r.Approve(testNow))

	assert.ErrorIs(t, r.CompleteVisit(slot.Add(-time.Minute)), ErrInvalidState)
	require.NoError(t, r.CompleteVisit(slot.Add(time.Hour)))
	assert.Equal(t, StatusCompleted, r.Status)
}

func TestExpire(t *testing.T) {
	r := newPurchase(t)

	assert.ErrorIs(t, r.Expire(testNow.Add(time.Hour)), ErrInvalidState)
	assert.False(t, r.ExpiryDue(testNow.Add(time.Hour)))

	deadline := r.ExpiresAt.Add(time.Minute)
	assert.True(t, r.ExpiryDue(deadline))
	require.NoError(t, r.Expire(deadline))
	assert.Equal(t, StatusExpired, r.Status)
	assert.False(t, r.ExpiryDue(deadline))
}

func TestExpireReservedHold(t *testing.T) {
	r := newPurchase(t)
	require.NoError(t, r.Approve(testNow))
	require.NoError(t, r.Expire(r.ExpiresAt))
	assert.Equal(t, StatusExpired, r.Status)
}

func TestConfirmedVisitDoesNotExpire(t *testing.T) {
	slot := time.Date(2030, 5, 21, 10, 0, 0, 0, time.UTC)
	r := newVisit(t, slot)
	require.NoError(t, r.Approve(testNow))
	assert.False(t, r.ExpiryDue(r.ExpiresAt.Add(time.Hour)))
	assert.ErrorIs(t, r.Expire(r.ExpiresAt.Add(time.Hour)), ErrInvalidTransition)
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusReserved))
	assert.True(t, CanTransition(StatusScheduled, StatusConfirmed))
	assert.True(t, CanTransition(StatusReserved, StatusPaid))
	assert.False(t, CanTransition(StatusPending, StatusPaid))
	assert.False(t, CanTransition(StatusPaid, StatusCancelled))
	assert.False(t, CanTransition(StatusConfirmed, StatusExpired))

	// Self transitions are legal so retries stay no-ops.
	assert.True(t, CanTransition(StatusCancelled, StatusCancelled))
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusPaid.Terminal())
	assert.False(t, StatusReserved.Terminal())
	assert.True(t, StatusReserved.HoldsListing())
	assert.True(t, StatusPaid.HoldsListing())
	assert.False(t, StatusPending.HoldsListing())
	assert.True(t, StatusScheduled.Active())
	assert.False(t, StatusRefused.Active())
}
