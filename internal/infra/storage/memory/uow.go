package memory

import (
	"context"
	"errors"

	"automarket/internal/app/uow"
	domainfavorites "automarket/internal/domain/favorites"
	domainlistings "automarket/internal/domain/listings"
	domainnotify "automarket/internal/domain/notify"
	domainpurchases "automarket/internal/domain/purchases"
	domainreservation "automarket/internal/domain/reservation"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo      domainlistings.ListingRepository
	ReservationsRepo  domainreservation.Repository
	PurchasesRepo     domainpurchases.Repository
	FavoritesRepo     domainfavorites.Repository
	NotificationsRepo domainnotify.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided but
// the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.ReservationsRepo == nil || f.PurchasesRepo == nil ||
		f.FavoritesRepo == nil || f.NotificationsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		listings:      f.ListingsRepo,
		reservations:  f.ReservationsRepo,
		purchases:     f.PurchasesRepo,
		favorites:     f.FavoritesRepo,
		notifications: f.NotificationsRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	listings      domainlistings.ListingRepository
	reservations  domainreservation.Repository
	purchases     domainpurchases.Repository
	favorites     domainfavorites.Repository
	notifications domainnotify.Repository
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return u.listings
}

func (u *Unit) Reservations() domainreservation.Repository {
	return u.reservations
}

func (u *Unit) Purchases() domainpurchases.Repository {
	return u.purchases
}

func (u *Unit) Favorites() domainfavorites.Repository {
	return u.favorites
}

func (u *Unit) Notifications() domainnotify.Repository {
	return u.notifications
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
