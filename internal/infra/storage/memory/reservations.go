package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainlistings "automarket/internal/domain/listings"
	domainreservation "automarket/internal/domain/reservation"
	domainuser "automarket/internal/domain/user"
)

// ReservationRepository stores reservations in memory.
type ReservationRepository struct {
	mu    sync.RWMutex
	items map[domainreservation.ReservationID]*domainreservation.Reservation
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{
		items: make(map[domainreservation.ReservationID]*domainreservation.Reservation),
	}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, domainreservation.ErrNotFound
	}
	return res, nil
}

// Save refuses stale versions the same way the mongo repository does.
func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[res.ID]; ok && stored.Version != res.Version {
		return ErrConcurrentUpdate
	}
	res.Version++
	r.items[res.ID] = res
	return nil
}

func (r *ReservationRepository) ActiveByBuyerAndListing(ctx context.Context, buyer domainuser.ID, listing domainlistings.ListingID) (*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.items {
		if res.Buyer == buyer && res.ListingID == listing && res.Status.Active() {
			return res, nil
		}
	}
	return nil, domainreservation.ErrNotFound
}

func (r *ReservationRepository) ListActiveByListing(ctx context.Context, listing domainlistings.ListingID) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.ListingID == listing && res.Status.Active() {
			matches = append(matches, res)
		}
	}
	sortByCreated(matches)
	return matches, nil
}

func (r *ReservationRepository) SlotTaken(ctx context.Context, listing domainlistings.ListingID, slot time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot = slot.UTC()
	for _, res := range r.items {
		if res.ListingID == listing && res.Status.Active() && !res.SlotAt.IsZero() && res.SlotAt.Equal(slot) {
			return true, nil
		}
	}
	return false, nil
}

func (r *ReservationRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.ExpiryDue(now) {
			matches = append(matches, res)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ExpiresAt.Before(matches[j].ExpiresAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *ReservationRepository) CountByStatus(ctx context.Context, statuses []domainreservation.Status) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, res := range r.items {
		for _, status := range statuses {
			if res.Status == status {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *ReservationRepository) ListByBuyer(ctx context.Context, buyer domainuser.ID) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.Buyer == buyer {
			matches = append(matches, res)
		}
	}
	sortByCreated(matches)
	return matches, nil
}

func (r *ReservationRepository) ListBySeller(ctx context.Context, seller domainlistings.SellerID, statuses []domainreservation.Status) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if res.Seller != seller {
			continue
		}
		if len(statuses) > 0 && !statusIncluded(res.Status, statuses) {
			continue
		}
		matches = append(matches, res)
	}
	sortByCreated(matches)
	return matches, nil
}

func (r *ReservationRepository) ListSlotsByListing(ctx context.Context, listing domainlistings.ListingID, from, to time.Time) ([]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	from = from.UTC()
	to = to.UTC()
	slots := make([]time.Time, 0)
	for _, res := range r.items {
		if res.ListingID != listing || !res.Status.Active() || res.SlotAt.IsZero() {
			continue
		}
		if res.SlotAt.Before(from) || !res.SlotAt.Before(to) {
			continue
		}
		slots = append(slots, res.SlotAt)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots, nil
}

func sortByCreated(items []*domainreservation.Reservation) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func statusIncluded(current domainreservation.Status, allowed []domainreservation.Status) bool {
	for _, candidate := range allowed {
		if current == candidate {
			return true
		}
	}
	return false
}

var _ domainreservation.Repository = (*ReservationRepository)(nil)
