package listings

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"automarket/internal/app/commands"
	"automarket/internal/app/dto"
	"automarket/internal/app/uow"
	domainlistings "automarket/internal/domain/listings"
)

const (
	createSellerListingKey  = "seller.listings.create"
	updateSellerListingKey  = "seller.listings.update"
	enableSellerListingKey  = "seller.listings.enable"
	disableSellerListingKey = "seller.listings.disable"
)

var ErrListingNotOwned = domainlistings.ErrNotOwned

type SellerListingPayload struct {
	Title        string
	Description  string
	Vehicle      domainlistings.Vehicle
	Location     string
	PriceCents   int64
	Photos       []string
	ThumbnailURL string
}

type CreateSellerListingCommand struct {
	SellerID string
	Payload  SellerListingPayload
}

func (c CreateSellerListingCommand) Key() string { return createSellerListingKey }

type CreateSellerListingHandler struct {
	Logger *slog.Logger
}

func (h *CreateSellerListingHandler) Handle(ctx context.Context, cmd CreateSellerListingCommand) (*dto.ListingDetail, error) {
	if strings.TrimSpace(cmd.SellerID) == "" {
		return nil, errors.New("seller id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:           domainlistings.ListingID(uuid.NewString()),
		Seller:       domainlistings.SellerID(cmd.SellerID),
		Title:        cmd.Payload.Title,
		Description:  cmd.Payload.Description,
		Vehicle:      cmd.Payload.Vehicle,
		Location:     cmd.Payload.Location,
		PriceCents:   cmd.Payload.PriceCents,
		Photos:       cmd.Payload.Photos,
		ThumbnailURL: cmd.Payload.ThumbnailURL,
		Now:          time.Now(),
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("seller listing created", "listing_id", listing.ID, "seller_id", cmd.SellerID)
	}

	result := dto.MapListingDetail(listing)
	return &result, nil
}

type UpdateSellerListingCommand struct {
	SellerID  string
	ListingID string
	Payload   SellerListingPayload
}

func (c UpdateSellerListingCommand) Key() string { return updateSellerListingKey }

type UpdateSellerListingHandler struct {
	Logger *slog.Logger
}

func (h *UpdateSellerListingHandler) Handle(ctx context.Context, cmd UpdateSellerListingCommand) (*dto.ListingDetail, error) {
	unit, listing, err := loadOwnedListing(ctx, cmd.SellerID, cmd.ListingID)
	if err != nil {
		return nil, err
	}

	if err := listing.UpdateAttributes(domainlistings.UpdateListingParams{
		Title:        cmd.Payload.Title,
		Description:  cmd.Payload.Description,
		Vehicle:      cmd.Payload.Vehicle,
		Location:     cmd.Payload.Location,
		PriceCents:   cmd.Payload.PriceCents,
		ThumbnailURL: cmd.Payload.ThumbnailURL,
		Now:          time.Now(),
	}); err != nil {
		return nil, err
	}

	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("seller listing updated", "listing_id", listing.ID, "seller_id", cmd.SellerID)
	}

	result := dto.MapListingDetail(listing)
	return &result, nil
}

type EnableSellerListingCommand struct {
	SellerID  string
	ListingID string
}

func (c EnableSellerListingCommand) Key() string { return enableSellerListingKey }

type EnableSellerListingHandler struct {
	Logger *slog.Logger
}

func (h *EnableSellerListingHandler) Handle(ctx context.Context, cmd EnableSellerListingCommand) (*dto.ListingDetail, error) {
	unit, listing, err := loadOwnedListing(ctx, cmd.SellerID, cmd.ListingID)
	if err != nil {
		return nil, err
	}

	if err := listing.Enable(time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("seller listing enabled", "listing_id", listing.ID, "seller_id", cmd.SellerID)
	}

	result := dto.MapListingDetail(listing)
	return &result, nil
}

type DisableSellerListingCommand struct {
	SellerID  string
	ListingID string
	Reason    string
}

func (c DisableSellerListingCommand) Key() string { return disableSellerListingKey }

type DisableSellerListingHandler struct {
	Logger *slog.Logger
}

func (h *DisableSellerListingHandler) Handle(ctx context.Context, cmd DisableSellerListingCommand) (*dto.ListingDetail, error) {
	unit, listing, err := loadOwnedListing(ctx, cmd.SellerID, cmd.ListingID)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = "seller-request"
	}

	if err := listing.Disable(time.Now(), reason); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("seller listing disabled", "listing_id", listing.ID, "seller_id", cmd.SellerID, "reason", reason)
	}

	result := dto.MapListingDetail(listing)
	return &result, nil
}

func loadOwnedListing(ctx context.Context, sellerID, listingID string) (uow.UnitOfWork, *domainlistings.Listing, error) {
	if strings.TrimSpace(sellerID) == "" {
		return nil, nil, errors.New("seller id is required")
	}
	if strings.TrimSpace(listingID) == "" {
		return nil, nil, errors.New("listing id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, nil, uow.ErrUnitOfWorkMissing
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return nil, nil, err
	}
	if listing.Seller != domainlistings.SellerID(sellerID) {
		return nil, nil, ErrListingNotOwned
	}
	return unit, listing, nil
}

var (
	_ commands.Handler[CreateSellerListingCommand, *dto.ListingDetail]  = (*CreateSellerListingHandler)(nil)
	_ commands.Handler[UpdateSellerListingCommand, *dto.ListingDetail]  = (*UpdateSellerListingHandler)(nil)
	_ commands.Handler[EnableSellerListingCommand, *dto.ListingDetail]  = (*EnableSellerListingHandler)(nil)
	_ commands.Handler[DisableSellerListingCommand, *dto.ListingDetail] = (*DisableSellerListingHandler)(nil)
)
