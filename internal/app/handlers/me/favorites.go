package me

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"automarket/internal/app/commands"
	"automarket/internal/app/dto"
	handlersupport "automarket/internal/app/handlers/support"
	"automarket/internal/app/queries"
	"automarket/internal/app/uow"
	domainfavorites "automarket/internal/domain/favorites"
	domainlistings "automarket/internal/domain/listings"
	domainuser "automarket/internal/domain/user"
)

const (
	addFavoriteKey    = "favorites.add"
	removeFavoriteKey = "favorites.remove"
	listFavoritesKey  = "me.favorites"
)

type AddFavoriteCommand struct {
	BuyerID   string
	ListingID string
}

func (c AddFavoriteCommand) Key() string { return addFavoriteKey }

type RemoveFavoriteCommand struct {
	BuyerID   string
	ListingID string
}

func (c RemoveFavoriteCommand) Key() string { return removeFavoriteKey }

type FavoriteActionResult struct {
	ListingID string `json:"listing_id"`
	Favorite  bool   `json:"favorite"`
}

type AddFavoriteHandler struct {
	Logger *slog.Logger
}

func (h *AddFavoriteHandler) Handle(ctx context.Context, cmd AddFavoriteCommand) (*FavoriteActionResult, error) {
	buyerID, listingID, err := favoriteIDs(cmd.BuyerID, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	// The listing must exist; favoriting a sold or disabled listing is allowed
	// so buyers can watch for it coming back.
	if _, err := unit.Listings().ByID(ctx, listingID); err != nil {
		return nil, err
	}

	if err := unit.Favorites().Add(ctx, domainfavorites.Favorite{
		Buyer:     buyerID,
		ListingID: listingID,
		AddedAt:   time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Debug("favorite added", "buyer_id", buyerID, "listing_id", listingID)
	}
	return &FavoriteActionResult{ListingID: string(listingID), Favorite: true}, nil
}

type RemoveFavoriteHandler struct {
	Logger *slog.Logger
}

func (h *RemoveFavoriteHandler) Handle(ctx context.Context, cmd RemoveFavoriteCommand) (*FavoriteActionResult, error) {
	buyerID, listingID, err := favoriteIDs(cmd.BuyerID, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	if err := unit.Favorites().Remove(ctx, buyerID, listingID); err != nil &&
		!errors.Is(err, domainfavorites.ErrNotFound) {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Debug("favorite removed", "buyer_id", buyerID, "listing_id", listingID)
	}
	return &FavoriteActionResult{ListingID: string(listingID), Favorite: false}, nil
}

func favoriteIDs(buyer, listing string) (domainuser.ID, domainlistings.ListingID, error) {
	if strings.TrimSpace(buyer) == "" {
		return "", "", errors.New("buyer id is required")
	}
	if strings.TrimSpace(listing) == "" {
		return "", "", errors.New("listing id is required")
	}
	return domainuser.ID(buyer), domainlistings.ListingID(listing), nil
}

type ListFavoritesQuery struct {
	BuyerID string
}

func (q ListFavoritesQuery) Key() string { return listFavoritesKey }

type ListFavoritesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListFavoritesHandler) Handle(ctx context.Context, q ListFavoritesQuery) (dto.ListingCatalog, error) {
	buyerID := strings.TrimSpace(q.BuyerID)
	if buyerID == "" {
		return dto.ListingCatalog{}, errors.New("buyer id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	favorites, err := unit.Favorites().ListByBuyer(execCtx, domainuser.ID(buyerID))
	if err != nil {
		return dto.ListingCatalog{}, err
	}

	summaries := make([]dto.ListingSummary, 0, len(favorites))
	for _, fav := range favorites {
		listing, err := unit.Listings().ByID(execCtx, fav.ListingID)
		if err != nil {
			if errors.Is(err, domainlistings.ErrNotFound) {
				continue
			}
			return dto.ListingCatalog{}, err
		}
		summaries = append(summaries, dto.MapListingSummary(listing))
	}
	return dto.ListingCatalog{Items: summaries, Total: len(summaries)}, nil
}

var (
	_ commands.Handler[AddFavoriteCommand, *FavoriteActionResult]    = (*AddFavoriteHandler)(nil)
	_ commands.Handler[RemoveFavoriteCommand, *FavoriteActionResult] = (*RemoveFavoriteHandler)(nil)
	_ queries.Handler[ListFavoritesQuery, dto.ListingCatalog]        = (*ListFavoritesHandler)(nil)
)
