package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"automarket/internal/domain/listings"
	domainreservation "automarket/internal/domain/reservation"
	domainuser "automarket/internal/domain/user"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{col: db.Collection("agg_reservation")}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreservation.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save writes the aggregate with a version compare-and-set so concurrent
// lifecycle updates surface as ErrConcurrentUpdate instead of lost writes.
func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	doc := newReservationDocument(res)
	filter := bson.M{"_id": doc.ID, "version": res.Version}
	doc.Version = res.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	result, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	res.Version = doc.Version
	return nil
}

func (r *ReservationRepository) ActiveByBuyerAndListing(ctx context.Context, buyer domainuser.ID, listing listings.ListingID) (*domainreservation.Reservation, error) {
	filter := bson.M{
		"buyer_id":   string(buyer),
		"listing_id": string(listing),
		"status":     bson.M{"$in": activeStatusValues()},
	}
	var doc reservationDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreservation.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) ListActiveByListing(ctx context.Context, listing listings.ListingID) ([]*domainreservation.Reservation, error) {
	filter := bson.M{
		"listing_id": string(listing),
		"status":     bson.M{"$in": activeStatusValues()},
	}
	return r.list(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
}

func (r *ReservationRepository) SlotTaken(ctx context.Context, listing listings.ListingID, slot time.Time) (bool, error) {
	filter := bson.M{
		"listing_id": string(listing),
		"status":     bson.M{"$in": activeStatusValues()},
		"slot_at":    slot.UTC().UnixMilli(),
	}
	count, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ReservationRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domainreservation.Reservation, error) {
	filter := bson.M{
		"status":     bson.M{"$in": expirableStatusValues()},
		"expires_at": bson.M{"$gt": 0, "$lte": now.UTC().UnixMilli()},
	}
	opts := options.Find().SetSort(bson.M{"expires_at": 1})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	return r.list(ctx, filter, opts)
}

func (r *ReservationRepository) CountByStatus(ctx context.Context, statuses []domainreservation.Status) (int, error) {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	count, err := r.col.CountDocuments(ctx, bson.M{"status": bson.M{"$in": values}})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *ReservationRepository) ListByBuyer(ctx context.Context, buyer domainuser.ID) ([]*domainreservation.Reservation, error) {
	filter := bson.M{"buyer_id": string(buyer)}
	return r.list(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
}

func (r *ReservationRepository) ListBySeller(ctx context.Context, seller listings.SellerID, statuses []domainreservation.Status) ([]*domainreservation.Reservation, error) {
	filter := bson.M{"seller_id": string(seller)}
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, string(status))
		}
		filter["status"] = bson.M{"$in": values}
	}
	return r.list(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
}

func (r *ReservationRepository) ListSlotsByListing(ctx context.Context, listing listings.ListingID, from, to time.Time) ([]time.Time, error) {
	filter := bson.M{
		"listing_id": string(listing),
		"status":     bson.M{"$in": activeStatusValues()},
		"slot_at":    bson.M{"$gte": from.UTC().UnixMilli(), "$lt": to.UTC().UnixMilli()},
	}
	items, err := r.list(ctx, filter, options.Find().SetSort(bson.M{"slot_at": 1}))
	if err != nil {
		return nil, err
	}
	slots := make([]time.Time, 0, len(items))
	for _, item := range items {
		if !item.SlotAt.IsZero() {
			slots = append(slots, item.SlotAt)
		}
	}
	return slots, nil
}

func (r *ReservationRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainreservation.Reservation, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]*domainreservation.Reservation, 0)
	for cursor.Next(ctx) {
		var doc reservationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func activeStatusValues() []string {
	values := make([]string, 0, len(domainreservation.Transitions))
	for status := range domainreservation.Transitions {
		if status.Active() {
			values = append(values, string(status))
		}
	}
	return values
}

// expirableStatusValues lists only the statuses the sweep may lapse.
// Confirmed visits keep their request deadline but never expire, so they must
// stay out of the sweep query or they would re-enter every batch forever.
func expirableStatusValues() []string {
	values := make([]string, 0, len(domainreservation.Transitions))
	for status := range domainreservation.Transitions {
		if status.Active() && domainreservation.CanTransition(status, domainreservation.StatusExpired) {
			values = append(values, string(status))
		}
	}
	return values
}

type reservationDocument struct {
	ID        string `bson:"_id"`
	BuyerID   string `bson:"buyer_id"`
	ListingID string `bson:"listing_id"`
	SellerID  string `bson:"seller_id"`
	Kind      string `bson:"kind"`
	Status    string `bson:"status"`
	SlotAt    int64  `bson:"slot_at"`
	ExpiresAt int64  `bson:"expires_at"`
	DecidedAt int64  `bson:"decided_at"`
	PaidAt    int64  `bson:"paid_at"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
	Version   int64  `bson:"version"`
}

func newReservationDocument(res *domainreservation.Reservation) reservationDocument {
	doc := reservationDocument{
		ID:        string(res.ID),
		BuyerID:   string(res.Buyer),
		ListingID: string(res.ListingID),
		SellerID:  string(res.Seller),
		Kind:      string(res.Kind),
		Status:    string(res.Status),
		CreatedAt: res.CreatedAt.UnixMilli(),
		UpdatedAt: res.UpdatedAt.UnixMilli(),
		Version:   res.Version,
	}
	if !res.SlotAt.IsZero() {
		doc.SlotAt = res.SlotAt.UnixMilli()
	}
	if !res.ExpiresAt.IsZero() {
		doc.ExpiresAt = res.ExpiresAt.UnixMilli()
	}
	if res.DecidedAt != nil {
		doc.DecidedAt = res.DecidedAt.UnixMilli()
	}
	if res.PaidAt != nil {
		doc.PaidAt = res.PaidAt.UnixMilli()
	}
	return doc
}

func (d reservationDocument) toAggregate() *domainreservation.Reservation {
	res := &domainreservation.Reservation{
		ID:        domainreservation.ReservationID(d.ID),
		Buyer:     domainuser.ID(d.BuyerID),
		ListingID: listings.ListingID(d.ListingID),
		Seller:    listings.SellerID(d.SellerID),
		Kind:      domainreservation.Kind(d.Kind),
		Status:    domainreservation.Status(d.Status),
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
	if d.SlotAt > 0 {
		res.SlotAt = timestampToTime(d.SlotAt)
	}
	if d.ExpiresAt > 0 {
		res.ExpiresAt = timestampToTime(d.ExpiresAt)
	}
	if d.DecidedAt > 0 {
		t := timestampToTime(d.DecidedAt)
		res.DecidedAt = &t
	}
	if d.PaidAt > 0 {
		t := timestampToTime(d.PaidAt)
		res.PaidAt = &t
	}
	return res
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainreservation.Repository = (*ReservationRepository)(nil)
