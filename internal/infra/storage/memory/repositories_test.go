package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlistings "automarket/internal/domain/listings"
)

func seedListing(t *testing.T, repo *ListingRepository, id string, mutate func(*domainlistings.CreateListingParams)) *domainlistings.Listing {
	t.Helper()
	params := domainlistings.CreateListingParams{
		ID:     domainlistings.ListingID(id),
		Seller: "seller-1",
		Title:  "Volkswagen Golf",
		Vehicle: domainlistings.Vehicle{
			Brand:     "Volkswagen",
			Model:     "Golf",
			Year:      2019,
			MileageKM: 80000,
			Fuel:      domainlistings.FuelPetrol,
			Gearbox:   domainlistings.GearboxManual,
		},
		Location:   "Budapest",
		PriceCents: 500000000,
	}
	if mutate != nil {
		mutate(&params)
	}
	listing, err := domainlistings.NewListing(params)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), listing))
	return listing
}

func TestListingRepositoryByID(t *testing.T) {
	repo := NewListingRepository()
	seedListing(t, repo, "lst-1", nil)

	found, err := repo.ByID(context.Background(), "lst-1")
	require.NoError(t, err)
	assert.Equal(t, domainlistings.ListingID("lst-1"), found.ID)

	_, err = repo.ByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)
}

func TestListingRepositorySaveRejectsStaleVersion(t *testing.T) {
	repo := NewListingRepository()
	listing := seedListing(t, repo, "lst-1", nil)

	stale := *listing
	stale.Version = listing.Version - 1
	assert.ErrorIs(t, repo.Save(context.Background(), &stale), ErrConcurrentUpdate)

	require.NoError(t, repo.Save(context.Background(), listing), "the current version keeps writing")
}

func TestListingRepositorySearchFilters(t *testing.T) {
	repo := NewListingRepository()
	ctx := context.Background()

	seedListing(t, repo, "lst-golf", nil)
	seedListing(t, repo, "lst-leaf", func(p *domainlistings.CreateListingParams) {
		p.Title = "Nissan Leaf"
		p.Vehicle.Brand = "Nissan"
		p.Vehicle.Model = "Leaf"
		p.Vehicle.Year = 2020
		p.Vehicle.MileageKM = 40000
		p.Vehicle.Fuel = domainlistings.FuelElectric
		p.Vehicle.Gearbox = domainlistings.GearboxAutomatic
		p.Location = "Szeged"
		p.PriceCents = 700000000
	})
	disabled := seedListing(t, repo, "lst-off", nil)
	require.NoError(t, disabled.Disable(time.Now(), "paused"))
	require.NoError(t, repo.Save(ctx, disabled))

	byBrand, err := repo.Search(ctx, domainlistings.SearchParams{Brand: "nissan"})
	require.NoError(t, err)
	require.Len(t, byBrand.Items, 1)
	assert.Equal(t, domainlistings.ListingID("lst-leaf"), byBrand.Items[0].ID)

	byFuel, err := repo.Search(ctx, domainlistings.SearchParams{Fuel: domainlistings.FuelElectric})
	require.NoError(t, err)
	assert.Equal(t, 1, byFuel.Total)

	activeOnly, err := repo.Search(ctx, domainlistings.SearchParams{OnlyActive: true})
	require.NoError(t, err)
	assert.Equal(t, 2, activeOnly.Total)

	priceCapped, err := repo.Search(ctx, domainlistings.SearchParams{PriceMaxCents: 600000000, OnlyActive: true})
	require.NoError(t, err)
	require.Len(t, priceCapped.Items, 1)
	assert.Equal(t, domainlistings.ListingID("lst-golf"), priceCapped.Items[0].ID)

	byLocation, err := repo.Search(ctx, domainlistings.SearchParams{Location: "szeg"})
	require.NoError(t, err)
	assert.Equal(t, 1, byLocation.Total)
}

func TestListingRepositorySearchSortAndPaging(t *testing.T) {
	repo := NewListingRepository()
	ctx := context.Background()

	seedListing(t, repo, "lst-cheap", func(p *domainlistings.CreateListingParams) { p.PriceCents = 100 })
	seedListing(t, repo, "lst-mid", func(p *domainlistings.CreateListingParams) { p.PriceCents = 200 })
	seedListing(t, repo, "lst-dear", func(p *domainlistings.CreateListingParams) { p.PriceCents = 300 })

	asc, err := repo.Search(ctx, domainlistings.SearchParams{Sort: domainlistings.SortByPriceAsc})
	require.NoError(t, err)
	require.Len(t, asc.Items, 3)
	assert.Equal(t, domainlistings.ListingID("lst-cheap"), asc.Items[0].ID)
	assert.Equal(t, domainlistings.ListingID("lst-dear"), asc.Items[2].ID)

	page, err := repo.Search(ctx, domainlistings.SearchParams{Sort: domainlistings.SortByPriceAsc, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domainlistings.ListingID("lst-mid"), page.Items[0].ID)
}

func TestListingRepositoryListBySeller(t *testing.T) {
	repo := NewListingRepository()
	seedListing(t, repo, "lst-1", nil)
	seedListing(t, repo, "lst-2", func(p *domainlistings.CreateListingParams) { p.Seller = "seller-2" })

	mine, err := repo.ListBySeller(context.Background(), "seller-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domainlistings.ListingID("lst-1"), mine[0].ID)
}
