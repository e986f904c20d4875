package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "automarket/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("agg_listing")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	filter := bson.M{"_id": doc.ID, "version": listing.Version}
	doc.Version = listing.Version + 1
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
	listing.Version = doc.Version
	return nil
}

func (r *ListingRepository) ListBySeller(ctx context.Context, seller domainlistings.SellerID) ([]*domainlistings.Listing, error) {
	cursor, err := r.col.Find(ctx, bson.M{"seller_id": string(seller)}, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]*domainlistings.Listing, 0)
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.toAggregate())
	}
	return items, cursor.Err()
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()
	filter := bson.M{}
	if opts.OnlyActive {
		filter["active"] = true
	}
	if opts.Seller != "" {
		filter["seller_id"] = string(opts.Seller)
	}
	if len(opts.Availabilities) > 0 {
		values := make([]string, 0, len(opts.Availabilities))
		for _, availability := range opts.Availabilities {
			values = append(values, string(availability))
		}
		filter["availability"] = bson.M{"$in": values}
	}
	if opts.Brand != "" {
		filter["vehicle.brand_lc"] = opts.Brand
	}
	if opts.Model != "" {
		filter["vehicle.model_lc"] = opts.Model
	}
	if opts.Fuel != "" {
		filter["vehicle.fuel"] = string(opts.Fuel)
	}
	if opts.Gearbox != "" {
		filter["vehicle.gearbox"] = string(opts.Gearbox)
	}
	if opts.Category != "" {
		filter["vehicle.category_lc"] = opts.Category
	}
	if opts.Location != "" {
		filter["location_lc"] = bson.M{"$regex": opts.Location}
	}
	if opts.Query != "" {
		filter["search_text"] = bson.M{"$regex": opts.Query}
	}
	price := bson.M{}
	if opts.PriceMinCents > 0 {
		price["$gte"] = opts.PriceMinCents
	}
	if opts.PriceMaxCents > 0 {
		price["$lte"] = opts.PriceMaxCents
	}
	if len(price) > 0 {
		filter["price_cents"] = price
	}
	year := bson.M{}
	if opts.YearMin > 0 {
		year["$gte"] = opts.YearMin
	}
	if opts.YearMax > 0 {
		year["$lte"] = opts.YearMax
	}
	if len(year) > 0 {
		filter["vehicle.year"] = year
	}
	if opts.MaxMileageKM > 0 {
		filter["vehicle.mileage_km"] = bson.M{"$lte": opts.MaxMileageKM}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}

	findOpts := options.Find().
		SetSort(sortSpec(opts.Sort)).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	cursor, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	defer cursor.Close(ctx)

	items := make([]*domainlistings.Listing, 0, opts.Limit)
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return domainlistings.SearchResult{}, err
		}
		items = append(items, doc.toAggregate())
	}
	if err := cursor.Err(); err != nil {
		return domainlistings.SearchResult{}, err
	}
	return domainlistings.SearchResult{Items: items, Total: int(total)}, nil
}

func sortSpec(sort domainlistings.CatalogSort) bson.D {
	switch sort {
	case domainlistings.SortByPriceAsc:
		return bson.D{{Key: "price_cents", Value: 1}, {Key: "created_at", Value: -1}}
	case domainlistings.SortByPriceDesc:
		return bson.D{{Key: "price_cents", Value: -1}, {Key: "created_at", Value: -1}}
	case domainlistings.SortByMileageAsc:
		return bson.D{{Key: "vehicle.mileage_km", Value: 1}, {Key: "price_cents", Value: 1}}
	case domainlistings.SortByYearDesc:
		return bson.D{{Key: "vehicle.year", Value: -1}, {Key: "price_cents", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "price_cents", Value: 1}}
	}
}

type vehicleDocument struct {
	Brand      string `bson:"brand"`
	BrandLC    string `bson:"brand_lc"`
	Model      string `bson:"model"`
	ModelLC    string `bson:"model_lc"`
	Year       int    `bson:"year"`
	MileageKM  int    `bson:"mileage_km"`
	Fuel       string `bson:"fuel"`
	Gearbox    string `bson:"gearbox"`
	Color      string `bson:"color"`
	Category   string `bson:"category"`
	CategoryLC string `bson:"category_lc"`
	Condition  string `bson:"condition"`
	DefectNote string `bson:"defect_note"`
}

type listingDocument struct {
	ID           string          `bson:"_id"`
	SellerID     string          `bson:"seller_id"`
	Title        string          `bson:"title"`
	Description  string          `bson:"description"`
	Vehicle      vehicleDocument `bson:"vehicle"`
	Location     string          `bson:"location"`
	LocationLC   string          `bson:"location_lc"`
	SearchText   string          `bson:"search_text"`
	PriceCents   int64           `bson:"price_cents"`
	Photos       []string        `bson:"photos"`
	ThumbnailURL string          `bson:"thumbnail_url"`
	Availability string          `bson:"availability"`
	Active       bool            `bson:"active"`
	CreatedAt    int64           `bson:"created_at"`
	UpdatedAt    int64           `bson:"updated_at"`
	Version      int64           `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:          string(l.ID),
		SellerID:    string(l.Seller),
		Title:       l.Title,
		Description: l.Description,
		Vehicle: vehicleDocument{
			Brand:      l.Vehicle.Brand,
			BrandLC:    lower(l.Vehicle.Brand),
			Model:      l.Vehicle.Model,
			ModelLC:    lower(l.Vehicle.Model),
			Year:       l.Vehicle.Year,
			MileageKM:  l.Vehicle.MileageKM,
			Fuel:       string(l.Vehicle.Fuel),
			Gearbox:    string(l.Vehicle.Gearbox),
			Color:      l.Vehicle.Color,
			Category:   l.Vehicle.Category,
			CategoryLC: lower(l.Vehicle.Category),
			Condition:  l.Vehicle.Condition,
			DefectNote: l.Vehicle.DefectNote,
		},
		Location:     l.Location,
		LocationLC:   lower(l.Location),
		SearchText:   lower(l.Title + " " + l.Vehicle.Brand + " " + l.Vehicle.Model + " " + l.Vehicle.Category + " " + l.Location),
		PriceCents:   l.PriceCents,
		Photos:       l.Photos,
		ThumbnailURL: l.ThumbnailURL,
		Availability: string(l.Availability),
		Active:       l.Active,
		CreatedAt:    l.CreatedAt.UnixMilli(),
		UpdatedAt:    l.UpdatedAt.UnixMilli(),
		Version:      l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Seller:      domainlistings.SellerID(d.SellerID),
		Title:       d.Title,
		Description: d.Description,
		Vehicle: domainlistings.Vehicle{
			Brand:      d.Vehicle.Brand,
			Model:      d.Vehicle.Model,
			Year:       d.Vehicle.Year,
			MileageKM:  d.Vehicle.MileageKM,
			Fuel:       domainlistings.FuelType(d.Vehicle.Fuel),
			Gearbox:    domainlistings.Gearbox(d.Vehicle.Gearbox),
			Color:      d.Vehicle.Color,
			Category:   d.Vehicle.Category,
			Condition:  d.Vehicle.Condition,
			DefectNote: d.Vehicle.DefectNote,
		},
		Location:     d.Location,
		PriceCents:   d.PriceCents,
		Photos:       d.Photos,
		ThumbnailURL: d.ThumbnailURL,
		Availability: domainlistings.Availability(d.Availability),
		Active:       d.Active,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
