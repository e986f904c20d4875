package listings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automarket/internal/app/uow"
	domainlistings "automarket/internal/domain/listings"
	"automarket/internal/infra/storage/memory"
)

type sellerFixture struct {
	factory  memory.Factory
	listings *memory.ListingRepository
}

func newSellerFixture(t *testing.T) *sellerFixture {
	t.Helper()
	f := &sellerFixture{listings: memory.NewListingRepository()}
	f.factory = memory.Factory{
		ListingsRepo:      f.listings,
		ReservationsRepo:  memory.NewReservationRepository(),
		PurchasesRepo:     memory.NewPurchaseRepository(),
		FavoritesRepo:     memory.NewFavoriteRepository(),
		NotificationsRepo: memory.NewNotificationRepository(),
	}
	return f
}

func (f *sellerFixture) unitCtx(t *testing.T) context.Context {
	t.Helper()
	unit, err := f.factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return uow.ContextWithUnitOfWork(context.Background(), unit)
}

func validPayload() SellerListingPayload {
	return SellerListingPayload{
		Title: "Toyota Corolla 1.8 Hybrid",
		Vehicle: domainlistings.Vehicle{
			Brand:   "Toyota",
			Model:   "Corolla",
			Year:    2022,
			Fuel:    domainlistings.FuelHybrid,
			Gearbox: domainlistings.GearboxAutomatic,
		},
		Location:   "Budapest",
		PriceCents: 1049000000,
	}
}

func TestCreateSellerListing(t *testing.T) {
	f := newSellerFixture(t)
	h := &CreateSellerListingHandler{}

	detail, err := h.Handle(f.unitCtx(t), CreateSellerListingCommand{
		SellerID: "seller-1",
		Payload:  validPayload(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, detail.ID)
	assert.Equal(t, string(domainlistings.Available), detail.Availability)
	assert.True(t, detail.Active)

	stored, err := f.listings.ByID(context.Background(), domainlistings.ListingID(detail.ID))
	require.NoError(t, err)
	assert.Equal(t, domainlistings.SellerID("seller-1"), stored.Seller)
}

func TestCreateSellerListingValidation(t *testing.T) {
	f := newSellerFixture(t)
	h := &CreateSellerListingHandler{}

	payload := validPayload()
	payload.Vehicle.Brand = ""
	_, err := h.Handle(f.unitCtx(t), CreateSellerListingCommand{SellerID: "seller-1", Payload: payload})
	assert.ErrorIs(t, err, domainlistings.ErrBrandRequired)
}

func TestUpdateSellerListingEnforcesOwnership(t *testing.T) {
	f := newSellerFixture(t)
	create := &CreateSellerListingHandler{}
	created, err := create.Handle(f.unitCtx(t), CreateSellerListingCommand{SellerID: "seller-1", Payload: validPayload()})
	require.NoError(t, err)

	update := &UpdateSellerListingHandler{}
	payload := validPayload()
	payload.PriceCents = 999000000

	_, err = update.Handle(f.unitCtx(t), UpdateSellerListingCommand{
		SellerID:  "seller-2",
		ListingID: created.ID,
		Payload:   payload,
	})
	assert.ErrorIs(t, err, ErrListingNotOwned)

	detail, err := update.Handle(f.unitCtx(t), UpdateSellerListingCommand{
		SellerID:  "seller-1",
		ListingID: created.ID,
		Payload:   payload,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(999000000), detail.PriceCents)
}

func TestDisableEnableSellerListing(t *testing.T) {
	f := newSellerFixture(t)
	create := &CreateSellerListingHandler{}
	created, err := create.Handle(f.unitCtx(t), CreateSellerListingCommand{SellerID: "seller-1", Payload: validPayload()})
	require.NoError(t, err)

	disable := &DisableSellerListingHandler{}
	detail, err := disable.Handle(f.unitCtx(t), DisableSellerListingCommand{
		SellerID:  "seller-1",
		ListingID: created.ID,
		Reason:    "sold offline",
	})
	require.NoError(t, err)
	assert.False(t, detail.Active)

	enable := &EnableSellerListingHandler{}
	detail, err = enable.Handle(f.unitCtx(t), EnableSellerListingCommand{
		SellerID:  "seller-1",
		ListingID: created.ID,
	})
	require.NoError(t, err)
	assert.True(t, detail.Active)
}

func TestUpdateMissingListing(t *testing.T) {
	f := newSellerFixture(t)
	update := &UpdateSellerListingHandler{}
	_, err := update.Handle(f.unitCtx(t), UpdateSellerListingCommand{
		SellerID:  "seller-1",
		ListingID: "missing",
		Payload:   validPayload(),
	})
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)
}

func TestCommandsRequireUnitOfWork(t *testing.T) {
	h := &CreateSellerListingHandler{}
	_, err := h.Handle(context.Background(), CreateSellerListingCommand{SellerID: "seller-1", Payload: validPayload()})
	assert.ErrorIs(t, err, uow.ErrUnitOfWorkMissing)
}
