package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainfavorites "automarket/internal/domain/favorites"
	domainlistings "automarket/internal/domain/listings"
	domainnotify "automarket/internal/domain/notify"
	domainpurchases "automarket/internal/domain/purchases"
	domainuser "automarket/internal/domain/user"
)

// PurchaseRepository persists the immutable sales history.
type PurchaseRepository struct {
	col *mongo.Collection
}

func NewPurchaseRepository(db *mongo.Database) *PurchaseRepository {
	return &PurchaseRepository{col: db.Collection("purchases")}
}

type purchaseDocument struct {
	ID            string `bson:"_id"`
	ReservationID string `bson:"reservation_id"`
	BuyerID       string `bson:"buyer_id"`
	ListingID     string `bson:"listing_id"`
	SellerID      string `bson:"seller_id"`
	AmountCents   int64  `bson:"amount_cents"`
	PurchasedAt   int64  `bson:"purchased_at"`
}

func (r *PurchaseRepository) ByReservation(ctx context.Context, reservationID string) (*domainpurchases.Purchase, error) {
	var doc purchaseDocument
	if err := r.col.FindOne(ctx, bson.M{"reservation_id": reservationID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpurchases.ErrNotFound
		}
		return nil, err
	}
	return doc.toRecord(), nil
}

func (r *PurchaseRepository) Save(ctx context.Context, p *domainpurchases.Purchase) error {
	doc := purchaseDocument{
		ID:            string(p.ID),
		ReservationID: p.ReservationID,
		BuyerID:       string(p.Buyer),
		ListingID:     string(p.ListingID),
		SellerID:      string(p.Seller),
		AmountCents:   p.AmountCents,
		PurchasedAt:   p.PurchasedAt.UnixMilli(),
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

func (r *PurchaseRepository) ListSince(ctx context.Context, since time.Time) ([]*domainpurchases.Purchase, error) {
	filter := bson.M{"purchased_at": bson.M{"$gte": since.UTC().UnixMilli()}}
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.M{"purchased_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]*domainpurchases.Purchase, 0)
	for cursor.Next(ctx) {
		var doc purchaseDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.toRecord())
	}
	return items, cursor.Err()
}

func (d purchaseDocument) toRecord() *domainpurchases.Purchase {
	return &domainpurchases.Purchase{
		ID:            domainpurchases.PurchaseID(d.ID),
		ReservationID: d.ReservationID,
		Buyer:         domainuser.ID(d.BuyerID),
		ListingID:     domainlistings.ListingID(d.ListingID),
		Seller:        domainlistings.SellerID(d.SellerID),
		AmountCents:   d.AmountCents,
		PurchasedAt:   timestampToTime(d.PurchasedAt),
	}
}

// FavoriteRepository persists buyer watchlists keyed by buyer and listing.
type FavoriteRepository struct {
	col *mongo.Collection
}

func NewFavoriteRepository(db *mongo.Database) *FavoriteRepository {
	return &FavoriteRepository{col: db.Collection("favorites")}
}

type favoriteDocument struct {
	ID        string `bson:"_id"`
	BuyerID   string `bson:"buyer_id"`
	ListingID string `bson:"listing_id"`
	AddedAt   int64  `bson:"added_at"`
}

func favoriteKey(buyer domainuser.ID, listing domainlistings.ListingID) string {
	return string(buyer) + ":" + string(listing)
}

func (r *FavoriteRepository) Add(ctx context.Context, fav domainfavorites.Favorite) error {
	doc := favoriteDocument{
		ID:        favoriteKey(fav.Buyer, fav.ListingID),
		BuyerID:   string(fav.Buyer),
		ListingID: string(fav.ListingID),
		AddedAt:   fav.AddedAt.UnixMilli(),
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$setOnInsert": doc}, opts)
	return err
}

func (r *FavoriteRepository) Remove(ctx context.Context, buyer domainuser.ID, listing domainlistings.ListingID) error {
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": favoriteKey(buyer, listing)})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domainfavorites.ErrNotFound
	}
	return nil
}

func (r *FavoriteRepository) ListByBuyer(ctx context.Context, buyer domainuser.ID) ([]domainfavorites.Favorite, error) {
	cursor, err := r.col.Find(ctx, bson.M{"buyer_id": string(buyer)}, options.Find().SetSort(bson.M{"added_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]domainfavorites.Favorite, 0)
	for cursor.Next(ctx) {
		var doc favoriteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, domainfavorites.Favorite{
			Buyer:     domainuser.ID(doc.BuyerID),
			ListingID: domainlistings.ListingID(doc.ListingID),
			AddedAt:   timestampToTime(doc.AddedAt),
		})
	}
	return items, cursor.Err()
}

func (r *FavoriteRepository) Exists(ctx context.Context, buyer domainuser.ID, listing domainlistings.ListingID) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"_id": favoriteKey(buyer, listing)}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// NotificationRepository persists the in-app notification feed.
type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection("notifications")}
}

type notificationDocument struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"user_id"`
	Title     string `bson:"title"`
	Message   string `bson:"message"`
	Read      bool   `bson:"read"`
	CreatedAt int64  `bson:"created_at"`
}

func (r *NotificationRepository) Save(ctx context.Context, n *domainnotify.Notification) error {
	doc := notificationDocument{
		ID:        string(n.ID),
		UserID:    string(n.UserID),
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UnixMilli(),
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID domainuser.ID) ([]*domainnotify.Notification, error) {
	cursor, err := r.col.Find(ctx, bson.M{"user_id": string(userID)}, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]*domainnotify.Notification, 0)
	for cursor.Next(ctx) {
		var doc notificationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, &domainnotify.Notification{
			ID:        domainnotify.NotificationID(doc.ID),
			UserID:    domainuser.ID(doc.UserID),
			Title:     doc.Title,
			Message:   doc.Message,
			Read:      doc.Read,
			CreatedAt: timestampToTime(doc.CreatedAt),
		})
	}
	return items, cursor.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id domainnotify.NotificationID, userID domainuser.ID) error {
	result, err := r.col.UpdateOne(ctx,
		bson.M{"_id": string(id), "user_id": string(userID)},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domainnotify.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID domainuser.ID) (int, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"user_id": string(userID), "read": false})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

var (
	_ domainpurchases.Repository = (*PurchaseRepository)(nil)
	_ domainfavorites.Repository = (*FavoriteRepository)(nil)
	_ domainnotify.Repository    = (*NotificationRepository)(nil)
)
