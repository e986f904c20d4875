package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainreservation "automarket/internal/domain/reservation"
	domainuser "automarket/internal/domain/user"
)

func seedReservation(t *testing.T, repo *ReservationRepository, id, buyer string, kind domainreservation.Kind, slot time.Time, created time.Time) *domainreservation.Reservation {
	t.Helper()
	r, err := domainreservation.New(domainreservation.CreateParams{
		ID:        domainreservation.ReservationID(id),
		Buyer:     domainuser.ID(buyer),
		ListingID: "lst-1",
		Seller:    "seller-1",
		Kind:      kind,
		SlotAt:    slot,
		HoldFor:   24 * time.Hour,
		Now:       created,
	})
	require.NoError(t, err)
	r.ClearEvents()
	require.NoError(t, repo.Save(context.Background(), r))
	return r
}

func TestReservationRepositorySaveRejectsStaleVersion(t *testing.T) {
	repo := NewReservationRepository()
	now := time.Now().UTC()
	res := seedReservation(t, repo, "res-1", "buyer-1", domainreservation.KindPurchase, time.Time{}, now)

	stale := *res
	stale.Version = res.Version - 1
	assert.ErrorIs(t, repo.Save(context.Background(), &stale), ErrConcurrentUpdate)

	require.NoError(t, repo.Save(context.Background(), res))
}

func TestReservationRepositoryActiveByBuyerAndListing(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	active := seedReservation(t, repo, "res-1", "buyer-1", domainreservation.KindPurchase, time.Time{}, now)

	found, err := repo.ActiveByBuyerAndListing(ctx, "buyer-1", "lst-1")
	require.NoError(t, err)
	assert.Equal(t, active.ID, found.ID)

	_, err = repo.ActiveByBuyerAndListing(ctx, "buyer-2", "lst-1")
	assert.ErrorIs(t, err, domainreservation.ErrNotFound)

	require.NoError(t, active.Refuse(now))
	require.NoError(t, repo.Save(ctx, active))
	_, err = repo.ActiveByBuyerAndListing(ctx, "buyer-1", "lst-1")
	assert.ErrorIs(t, err, domainreservation.ErrNotFound, "terminal reservations no longer block the buyer")
}

func TestReservationRepositorySlotTaken(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()
	now := time.Now().UTC()
	slot := time.Date(2030, 5, 21, 10, 0, 0, 0, time.UTC)

	visit := seedReservation(t, repo, "res-1", "buyer-1", domainreservation.KindVisit, slot, now)

	taken, err := repo.SlotTaken(ctx, "lst-1", slot)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.SlotTaken(ctx, "lst-1", slot.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.SlotTaken(ctx, "lst-other", slot)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, visit.Cancel(now, 0))
	require.NoError(t, repo.Save(ctx, visit))
	taken, err = repo.SlotTaken(ctx, "lst-1", slot)
	require.NoError(t, err)
	assert.False(t, taken, "cancelled visits free their slot")
}

func TestReservationRepositoryListExpired(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	seedReservation(t, repo, "res-old", "buyer-1", domainreservation.KindPurchase, time.Time{}, now.Add(-48*time.Hour))
	seedReservation(t, repo, "res-older", "buyer-2", domainreservation.KindPurchase, time.Time{}, now.Add(-72*time.Hour))
	seedReservation(t, repo, "res-fresh", "buyer-3", domainreservation.KindPurchase, time.Time{}, now)

	expired, err := repo.ListExpired(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, domainreservation.ReservationID("res-older"), expired[0].ID, "oldest deadline first")

	limited, err := repo.ListExpired(ctx, now, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestReservationRepositoryListBySellerStatusFilter(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	pending := seedReservation(t, repo, "res-1", "buyer-1", domainreservation.KindPurchase, time.Time{}, now)
	decided := seedReservation(t, repo, "res-2", "buyer-2", domainreservation.KindPurchase, time.Time{}, now.Add(-time.Hour))
	require.NoError(t, decided.Refuse(now))
	require.NoError(t, repo.Save(ctx, decided))

	undecided, err := repo.ListBySeller(ctx, "seller-1", []domainreservation.Status{domainreservation.StatusPending})
	require.NoError(t, err)
	require.Len(t, undecided, 1)
	assert.Equal(t, pending.ID, undecided[0].ID)

	all, err := repo.ListBySeller(ctx, "seller-1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReservationRepositoryCountByStatus(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	seedReservation(t, repo, "res-1", "buyer-1", domainreservation.KindPurchase, time.Time{}, now)
	second := seedReservation(t, repo, "res-2", "buyer-2", domainreservation.KindPurchase, time.Time{}, now)
	require.NoError(t, second.Approve(now))
	require.NoError(t, repo.Save(ctx, second))

	count, err := repo.CountByStatus(ctx, []domainreservation.Status{
		domainreservation.StatusPending,
		domainreservation.StatusReserved,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	reservedOnly, err := repo.CountByStatus(ctx, []domainreservation.Status{domainreservation.StatusReserved})
	require.NoError(t, err)
	assert.Equal(t, 1, reservedOnly)
}

func TestReservationRepositoryListSlotsByListing(t *testing.T) {
	repo := NewReservationRepository()
	ctx := context.Background()
	now := time.Now().UTC()
	day := time.Date(2030, 5, 21, 0, 0, 0, 0, time.UTC)

	seedReservation(t, repo, "res-1", "buyer-1", domainreservation.KindVisit, day.Add(10*time.Hour), now)
	seedReservation(t, repo, "res-2", "buyer-2", domainreservation.KindVisit, day.Add(9*time.Hour), now)
	seedReservation(t, repo, "res-3", "buyer-3", domainreservation.KindVisit, day.AddDate(0, 0, 1).Add(10*time.Hour), now)

	slots, err := repo.ListSlotsByListing(ctx, "lst-1", day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Before(slots[1]), "slots are ordered")
}
