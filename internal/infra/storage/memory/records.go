package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainfavorites "automarket/internal/domain/favorites"
	domainlistings "automarket/internal/domain/listings"
	domainnotify "automarket/internal/domain/notify"
	domainpurchases "automarket/internal/domain/purchases"
	domainuser "automarket/internal/domain/user"
)

// PurchaseRepository keeps the sales history in memory.
type PurchaseRepository struct {
	mu            sync.RWMutex
	byReservation map[string]*domainpurchases.Purchase
}

func NewPurchaseRepository() *PurchaseRepository {
	return &PurchaseRepository{byReservation: make(map[string]*domainpurchases.Purchase)}
}

func (r *PurchaseRepository) ByReservation(ctx context.Context, reservationID string) (*domainpurchases.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byReservation[reservationID]
	if !ok {
		return nil, domainpurchases.ErrNotFound
	}
	return p, nil
}

func (r *PurchaseRepository) Save(ctx context.Context, p *domainpurchases.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byReservation[p.ReservationID] = p
	return nil
}

func (r *PurchaseRepository) ListSince(ctx context.Context, since time.Time) ([]*domainpurchases.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	since = since.UTC()
	matches := make([]*domainpurchases.Purchase, 0)
	for _, p := range r.byReservation {
		if p.PurchasedAt.Before(since) {
			continue
		}
		matches = append(matches, p)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].PurchasedAt.After(matches[j].PurchasedAt)
	})
	return matches, nil
}

// FavoriteRepository keeps buyer watchlists in memory.
type FavoriteRepository struct {
	mu    sync.RWMutex
	items map[domainuser.ID]map[domainlistings.ListingID]domainfavorites.Favorite
}

func NewFavoriteRepository() *FavoriteRepository {
	return &FavoriteRepository{
		items: make(map[domainuser.ID]map[domainlistings.ListingID]domainfavorites.Favorite),
	}
}

func (r *FavoriteRepository) Add(ctx context.Context, fav domainfavorites.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byListing, ok := r.items[fav.Buyer]
	if !ok {
		byListing = make(map[domainlistings.ListingID]domainfavorites.Favorite)
		r.items[fav.Buyer] = byListing
	}
	if _, exists := byListing[fav.ListingID]; exists {
		return nil
	}
	byListing[fav.ListingID] = fav
	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, buyer domainuser.ID, listing domainlistings.ListingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byListing, ok := r.items[buyer]
	if !ok {
		return domainfavorites.ErrNotFound
	}
	if _, exists := byListing[listing]; !exists {
		return domainfavorites.ErrNotFound
	}
	delete(byListing, listing)
	return nil
}

func (r *FavoriteRepository) ListByBuyer(ctx context.Context, buyer domainuser.ID) ([]domainfavorites.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byListing := r.items[buyer]
	matches := make([]domainfavorites.Favorite, 0, len(byListing))
	for _, fav := range byListing {
		matches = append(matches, fav)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].AddedAt.After(matches[j].AddedAt)
	})
	return matches, nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, buyer domainuser.ID, listing domainlistings.ListingID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byListing, ok := r.items[buyer]
	if !ok {
		return false, nil
	}
	_, exists := byListing[listing]
	return exists, nil
}

// NotificationRepository backs the in-app notification feed.
type NotificationRepository struct {
	mu     sync.RWMutex
	byUser map[domainuser.ID][]*domainnotify.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{byUser: make(map[domainuser.ID][]*domainnotify.Notification)}
}

func (r *NotificationRepository) Save(ctx context.Context, n *domainnotify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[n.UserID] = append(r.byUser[n.UserID], n)
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID domainuser.ID) ([]*domainnotify.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := append([]*domainnotify.Notification(nil), r.byUser[userID]...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id domainnotify.NotificationID, userID domainuser.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.byUser[userID] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return domainnotify.ErrNotFound
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID domainuser.ID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, n := range r.byUser[userID] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

var (
	_ domainpurchases.Repository = (*PurchaseRepository)(nil)
	_ domainfavorites.Repository = (*FavoriteRepository)(nil)
	_ domainnotify.Repository    = (*NotificationRepository)(nil)
)
