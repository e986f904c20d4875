package uow

import (
	"context"

	domainfavorites "automarket/internal/domain/favorites"
	domainlistings "automarket/internal/domain/listings"
	domainnotify "automarket/internal/domain/notify"
	domainpurchases "automarket/internal/domain/purchases"
	domainreservation "automarket/internal/domain/reservation"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Reservations() domainreservation.Repository
	Purchases() domainpurchases.Repository
	Favorites() domainfavorites.Repository
	Notifications() domainnotify.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
