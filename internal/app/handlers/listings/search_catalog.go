package listings

import (
	"context"

	"automarket/internal/app/dto"
	"automarket/internal/app/queries"
	"automarket/internal/app/uow"
	domainlistings "automarket/internal/domain/listings"
)

const searchCatalogKey = "listings.catalog"

// SearchCatalogQuery describes the public catalog filters.
type SearchCatalogQuery struct {
	Brand         string
	Model         string
	Fuel          string
	Gearbox       string
	Category      string
	Location      string
	Query         string
	PriceMinCents int64
	PriceMaxCents int64
	YearMin       int
	YearMax       int
	MaxMileageKM  int
	Sort          string
	Limit         int
	Offset        int
}

func (q SearchCatalogQuery) Key() string { return searchCatalogKey }

// SearchCatalogHandler loads listings with applied filters.
type SearchCatalogHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchCatalogHandler) Handle(ctx context.Context, q SearchCatalogQuery) (dto.ListingCatalog, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.ListingCatalog{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.ListingCatalog{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	searchParams := domainlistings.SearchParams{
		Brand:         q.Brand,
		Model:         q.Model,
		Fuel:          domainlistings.FuelType(q.Fuel),
		Gearbox:       domainlistings.Gearbox(q.Gearbox),
		Category:      q.Category,
		Location:      q.Location,
		Query:         q.Query,
		PriceMinCents: q.PriceMinCents,
		PriceMaxCents: q.PriceMaxCents,
		YearMin:       q.YearMin,
		YearMax:       q.YearMax,
		MaxMileageKM:  q.MaxMileageKM,
		Sort:          domainlistings.CatalogSort(q.Sort),
		Limit:         q.Limit,
		Offset:        q.Offset,
		OnlyActive:    true,
	}
	searchParams = searchParams.Normalized()

	result, err := unit.Listings().Search(ctx, searchParams)
	if err != nil {
		return dto.ListingCatalog{}, err
	}

	return dto.MapCatalog(result, searchParams), nil
}

var _ queries.Handler[SearchCatalogQuery, dto.ListingCatalog] = (*SearchCatalogHandler)(nil)
