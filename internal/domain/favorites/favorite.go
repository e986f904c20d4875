package favorites

import (
	"context"
	"errors"
	"time"

	"automarket/internal/domain/listings"
	"automarket/internal/domain/user"
)

var ErrNotFound = errors.New("favorites: not found")

// Favorite marks a listing a buyer wants to keep an eye on. Adding twice is a
// no-op at the repository level.
type Favorite struct {
	Buyer     user.ID
	ListingID listings.ListingID
	AddedAt   time.Time
}

type Repository interface {
	Add(ctx context.Context, fav Favorite) error
	Remove(ctx context.Context, buyer user.ID, listing listings.ListingID) error
	ListByBuyer(ctx context.Context, buyer user.ID) ([]Favorite, error)
	Exists(ctx context.Context, buyer user.ID, listing listings.ListingID) (bool, error)
}
