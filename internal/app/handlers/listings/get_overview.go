package listings

import (
	"context"

	"automarket/internal/app/dto"
	"automarket/internal/app/queries"
	"automarket/internal/app/uow"
	domainlistings "automarket/internal/domain/listings"
)

const getOverviewKey = "listings.overview"

// GetOverviewQuery loads a listing with its live reservation picture.
type GetOverviewQuery struct {
	ListingID string
}

func (q GetOverviewQuery) Key() string { return getOverviewKey }

type GetOverviewHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetOverviewHandler) Handle(ctx context.Context, q GetOverviewQuery) (dto.ListingOverview, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.ListingOverview{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.ListingOverview{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.ListingOverview{}, err
	}

	active, err := unit.Reservations().ListActiveByListing(ctx, listing.ID)
	if err != nil {
		return dto.ListingOverview{}, err
	}

	return dto.ListingOverview{
		Listing:            dto.MapListingDetail(listing),
		ActiveReservations: len(active),
		HeldExclusively:    listing.Availability == domainlistings.Reserved,
	}, nil
}

var _ queries.Handler[GetOverviewQuery, dto.ListingOverview] = (*GetOverviewHandler)(nil)
