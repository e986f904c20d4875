package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2030, 5, 20, 8, 0, 0, 0, time.UTC)

func validParams() CreateListingParams {
	return CreateListingParams{
		ID:     "lst-1",
		Seller: "seller-1",
		Title:  "Volkswagen Golf 1.5 TSI",
		Vehicle: Vehicle{
			Brand:     "Volkswagen",
			Model:     "Golf",
			Year:      2019,
			MileageKM: 78500,
			Fuel:      FuelPetrol,
			Gearbox:   GearboxManual,
		},
		Location:   "Budapest",
		PriceCents: 689000000,
		Now:        testNow,
	}
}

func newTestListing(t *testing.T) *Listing {
	t.Helper()
	listing, err := NewListing(validParams())
	require.NoError(t, err)
	return listing
}

func TestNewListing(t *testing.T) {
	listing := newTestListing(t)
	assert.Equal(t, Available, listing.Availability)
	assert.True(t, listing.Active)
	assert.True(t, listing.Purchasable())
	assert.Len(t, listing.PendingEvents(), 1)
}

func TestNewListingValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*CreateListingParams)
		wantErr error
	}{
		{"missing title", func(p *CreateListingParams) { p.Title = "  " }, ErrTitleRequired},
		{"missing brand", func(p *CreateListingParams) { p.Vehicle.Brand = "" }, ErrBrandRequired},
		{"missing model", func(p *CreateListingParams) { p.Vehicle.Model = "" }, ErrModelRequired},
		{"year too old", func(p *CreateListingParams) { p.Vehicle.Year = 1890 }, ErrInvalidYear},
		{"year in far future", func(p *CreateListingParams) { p.Vehicle.Year = testNow.Year() + 2 }, ErrInvalidYear},
		{"negative mileage", func(p *CreateListingParams) { p.Vehicle.MileageKM = -1 }, ErrInvalidMileage},
		{"negative price", func(p *CreateListingParams) { p.PriceCents = -100 }, ErrInvalidPrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			_, err := NewListing(params)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNewListingNormalizesVehicle(t *testing.T) {
	params := validParams()
	params.Vehicle.Fuel = " Petrol "
	params.Vehicle.Gearbox = "MANUAL"
	params.Vehicle.Brand = "  Volkswagen "
	listing, err := NewListing(params)
	require.NoError(t, err)
	assert.Equal(t, FuelPetrol, listing.Vehicle.Fuel)
	assert.Equal(t, GearboxManual, listing.Vehicle.Gearbox)
	assert.Equal(t, "Volkswagen", listing.Vehicle.Brand)
}

func TestAvailabilityTransitions(t *testing.T) {
	listing := newTestListing(t)

	require.NoError(t, listing.MarkReserved(testNow))
	assert.Equal(t, Reserved, listing.Availability)
	assert.False(t, listing.Purchasable())

	// A second hold on a reserved listing is rejected.
	assert.ErrorIs(t, listing.MarkReserved(testNow), ErrInvalidState)

	require.NoError(t, listing.MarkAvailable(testNow))
	assert.Equal(t, Available, listing.Availability)

	require.NoError(t, listing.MarkReserved(testNow))
	require.NoError(t, listing.MarkSold(testNow))
	assert.Equal(t, Sold, listing.Availability)

	// Sold is terminal.
	assert.ErrorIs(t, listing.MarkAvailable(testNow), ErrSold)
	assert.ErrorIs(t, listing.MarkReserved(testNow), ErrSold)
	require.NoError(t, listing.MarkSold(testNow))
}

func TestMarkSoldRequiresHold(t *testing.T) {
	listing := newTestListing(t)
	assert.ErrorIs(t, listing.MarkSold(testNow), ErrInvalidState)
}

func TestDisableEnable(t *testing.T) {
	listing := newTestListing(t)

	require.NoError(t, listing.Disable(testNow, "on holiday"))
	assert.False(t, listing.Active)
	assert.False(t, listing.Acceptable())

	require.NoError(t, listing.Enable(testNow))
	assert.True(t, listing.Active)
	assert.True(t, listing.Acceptable())

	require.NoError(t, listing.MarkReserved(testNow))
	require.NoError(t, listing.MarkSold(testNow))
	require.NoError(t, listing.Disable(testNow, "sold"))
	assert.ErrorIs(t, listing.Enable(testNow), ErrSold)
}

func TestUpdateAttributes(t *testing.T) {
	listing := newTestListing(t)
	err := listing.UpdateAttributes(UpdateListingParams{
		Title:      "Volkswagen Golf Highline",
		Vehicle:    listing.Vehicle,
		PriceCents: 650000000,
		Now:        testNow.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Volkswagen Golf Highline", listing.Title)
	assert.Equal(t, int64(650000000), listing.PriceCents)
}

func TestUpdateAttributesOnSold(t *testing.T) {
	listing := newTestListing(t)
	require.NoError(t, listing.MarkReserved(testNow))
	require.NoError(t, listing.MarkSold(testNow))
	err := listing.UpdateAttributes(UpdateListingParams{Title: "x", Vehicle: listing.Vehicle, Now: testNow})
	assert.ErrorIs(t, err, ErrSold)
}

func TestAddPhoto(t *testing.T) {
	listing := newTestListing(t)
	require.NoError(t, listing.AddPhoto("https://cdn.example.com/a.jpg", testNow))
	assert.Equal(t, "https://cdn.example.com/a.jpg", listing.ThumbnailURL)

	require.NoError(t, listing.AddPhoto("https://cdn.example.com/b.jpg", testNow))
	assert.Equal(t, "https://cdn.example.com/a.jpg", listing.ThumbnailURL)
	assert.Len(t, listing.Photos, 2)

	assert.ErrorIs(t, listing.AddPhoto("  ", testNow), ErrPhotoURLRequired)
}
