package listings

import (
	"context"
	"errors"
	"sort"
	"strings"

	"automarket/internal/app/dto"
	handlersupport "automarket/internal/app/handlers/support"
	"automarket/internal/app/queries"
	"automarket/internal/app/uow"
	domainlistings "automarket/internal/domain/listings"
)

const listSellerListingsKey = "seller.listings.list"

type ListSellerListingsQuery struct {
	SellerID string
}

func (q ListSellerListingsQuery) Key() string { return listSellerListingsKey }

type ListSellerListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListSellerListingsHandler) Handle(ctx context.Context, q ListSellerListingsQuery) (dto.ListingCatalog, error) {
	sellerID := strings.TrimSpace(q.SellerID)
	if sellerID == "" {
		return dto.ListingCatalog{}, errors.New("seller id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Listings().ListBySeller(execCtx, domainlistings.SellerID(sellerID))
	if err != nil {
		return dto.ListingCatalog{}, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	summaries := make([]dto.ListingSummary, 0, len(items))
	for _, listing := range items {
		summaries = append(summaries, dto.MapListingSummary(listing))
	}
	return dto.ListingCatalog{Items: summaries, Total: len(summaries)}, nil
}

var _ queries.Handler[ListSellerListingsQuery, dto.ListingCatalog] = (*ListSellerListingsHandler)(nil)
