package me

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automarket/internal/app/uow"
	domainlistings "automarket/internal/domain/listings"
	domainnotify "automarket/internal/domain/notify"
	"automarket/internal/infra/storage/memory"
)

type meFixture struct {
	factory       memory.Factory
	listings      *memory.ListingRepository
	notifications *memory.NotificationRepository
}

func newMeFixture(t *testing.T) *meFixture {
	t.Helper()
	f := &meFixture{
		listings:      memory.NewListingRepository(),
		notifications: memory.NewNotificationRepository(),
	}
	f.factory = memory.Factory{
		ListingsRepo:      f.listings,
		ReservationsRepo:  memory.NewReservationRepository(),
		PurchasesRepo:     memory.NewPurchaseRepository(),
		FavoritesRepo:     memory.NewFavoriteRepository(),
		NotificationsRepo: f.notifications,
	}

	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:     "lst-1",
		Seller: "seller-1",
		Title:  "Suzuki Swift",
		Vehicle: domainlistings.Vehicle{
			Brand:     "Suzuki",
			Model:     "Swift",
			Year:      2018,
			MileageKM: 95000,
			Fuel:      domainlistings.FuelPetrol,
			Gearbox:   domainlistings.GearboxManual,
		},
		PriceCents: 320000000,
	})
	require.NoError(t, err)
	require.NoError(t, f.listings.Save(context.Background(), listing))
	return f
}

func (f *meFixture) unitCtx(t *testing.T) context.Context {
	t.Helper()
	unit, err := f.factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return uow.ContextWithUnitOfWork(context.Background(), unit)
}

func TestFavoriteRoundtrip(t *testing.T) {
	f := newMeFixture(t)

	add := &AddFavoriteHandler{}
	result, err := add.Handle(f.unitCtx(t), AddFavoriteCommand{BuyerID: "buyer-1", ListingID: "lst-1"})
	require.NoError(t, err)
	assert.True(t, result.Favorite)

	list := &ListFavoritesHandler{UoWFactory: f.factory}
	catalog, err := list.Handle(context.Background(), ListFavoritesQuery{BuyerID: "buyer-1"})
	require.NoError(t, err)
	require.Len(t, catalog.Items, 1)
	assert.Equal(t, "lst-1", catalog.Items[0].ID)

	remove := &RemoveFavoriteHandler{}
	removed, err := remove.Handle(f.unitCtx(t), RemoveFavoriteCommand{BuyerID: "buyer-1", ListingID: "lst-1"})
	require.NoError(t, err)
	assert.False(t, removed.Favorite)

	catalog, err = list.Handle(context.Background(), ListFavoritesQuery{BuyerID: "buyer-1"})
	require.NoError(t, err)
	assert.Empty(t, catalog.Items)
}

func TestAddFavoriteRequiresListing(t *testing.T) {
	f := newMeFixture(t)
	add := &AddFavoriteHandler{}
	_, err := add.Handle(f.unitCtx(t), AddFavoriteCommand{BuyerID: "buyer-1", ListingID: "missing"})
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)
}

func TestRemoveFavoriteIsIdempotent(t *testing.T) {
	f := newMeFixture(t)
	remove := &RemoveFavoriteHandler{}
	result, err := remove.Handle(f.unitCtx(t), RemoveFavoriteCommand{BuyerID: "buyer-1", ListingID: "lst-1"})
	require.NoError(t, err)
	assert.False(t, result.Favorite)
}

func TestNotificationFeedAndMarkRead(t *testing.T) {
	f := newMeFixture(t)
	ctx := context.Background()

	for i, title := range []string{"Reservation approved", "Visit reminder"} {
		n, err := domainnotify.New(domainnotify.CreateParams{
			ID:     domainnotify.NotificationID([]string{"ntf-1", "ntf-2"}[i]),
			UserID: "buyer-1",
			Title:  title,
			Now:    time.Now(),
		})
		require.NoError(t, err)
		require.NoError(t, f.notifications.Save(ctx, n))
	}

	list := &ListNotificationsHandler{UoWFactory: f.factory}
	feed, err := list.Handle(ctx, ListNotificationsQuery{UserID: "buyer-1"})
	require.NoError(t, err)
	assert.Len(t, feed.Items, 2)
	assert.Equal(t, 2, feed.Unread)

	mark := &MarkNotificationReadHandler{}
	_, err = mark.Handle(f.unitCtx(t), MarkNotificationReadCommand{UserID: "buyer-1", NotificationID: "ntf-1"})
	require.NoError(t, err)

	feed, err = list.Handle(ctx, ListNotificationsQuery{UserID: "buyer-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, feed.Unread)

	_, err = mark.Handle(f.unitCtx(t), MarkNotificationReadCommand{UserID: "buyer-2", NotificationID: "ntf-2"})
	assert.ErrorIs(t, err, domainnotify.ErrNotFound, "marking another user's notification fails")
}
