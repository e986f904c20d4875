package listings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"automarket/internal/app/commands"
	"automarket/internal/infra/storage/s3"
)

const uploadSellerListingPhotoKey = "seller.listings.photos.upload"

type UploadSellerListingPhotoCommand struct {
	SellerID    string
	ListingID   string
	ObjectKey   string
	ContentType string
	Reader      io.Reader
}

func (c UploadSellerListingPhotoCommand) Key() string { return uploadSellerListingPhotoKey }

type PhotoUploadResult struct {
	ListingID    string   `json:"listing_id"`
	Photos       []string `json:"photos"`
	ThumbnailURL string   `json:"thumbnail_url"`
}

type UploadSellerListingPhotoHandler struct {
	Logger   *slog.Logger
	Uploader s3.Uploader
	Now      func() time.Time
}

func (h *UploadSellerListingPhotoHandler) Handle(ctx context.Context, cmd UploadSellerListingPhotoCommand) (*PhotoUploadResult, error) {
	if h.Uploader == nil {
		return nil, errors.New("photo uploader unavailable")
	}
	if cmd.Reader == nil {
		return nil, errors.New("photo reader is required")
	}
	if strings.TrimSpace(cmd.ObjectKey) == "" {
		return nil, errors.New("object key is required")
	}

	unit, listing, err := loadOwnedListing(ctx, cmd.SellerID, cmd.ListingID)
	if err != nil {
		return nil, err
	}

	publicURL, err := h.Uploader.Upload(ctx, cmd.ObjectKey, cmd.Reader, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	if err := listing.AddPhoto(publicURL, now); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing photo added", "listing_id", listing.ID, "seller_id", cmd.SellerID, "object_key", cmd.ObjectKey)
	}

	result := PhotoUploadResult{
		ListingID:    cmd.ListingID,
		Photos:       append([]string(nil), listing.Photos...),
		ThumbnailURL: listing.ThumbnailURL,
	}
	return &result, nil
}

var _ commands.Handler[UploadSellerListingPhotoCommand, *PhotoUploadResult] = (*UploadSellerListingPhotoHandler)(nil)
