package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"automarket/internal/domain/shared/events"
)

var (
	ErrTitleRequired    = errors.New("listings: title is required")
	ErrBrandRequired    = errors.New("listings: vehicle brand is required")
	ErrModelRequired    = errors.New("listings: vehicle model is required")
	ErrInvalidYear      = errors.New("listings: vehicle year is out of range")
	ErrInvalidMileage   = errors.New("listings: mileage must be non-negative")
	ErrInvalidPrice     = errors.New("listings: price must be non-negative")
	ErrNotActive        = errors.New("listings: listing is not active")
	ErrSold             = errors.New("listings: listing already sold")
	ErrInvalidState     = errors.New("listings: invalid availability transition")
	ErrNotFound         = errors.New("listings: not found")
	ErrNotOwned         = errors.New("listings: listing not owned by seller")
	ErrPhotoURLRequired = errors.New("listings: photo url is required")
)

type ListingID string
type SellerID string

// Availability is the derived market state of a listing. It is mutated only
// by reservation lifecycle transitions, never directly by sellers.
type Availability string

const (
	Available Availability = "AVAILABLE"
	Reserved  Availability = "RESERVED"
	Sold      Availability = "SOLD"
	Disabled  Availability = "DISABLED"
)

type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
)

type Gearbox string

const (
	GearboxManual    Gearbox = "manual"
	GearboxAutomatic Gearbox = "automatic"
)

// Vehicle holds the advertised vehicle attributes. They are immutable once
// a reservation against the listing exists.
type Vehicle struct {
	Brand      string
	Model      string
	Year       int
	MileageKM  int
	Fuel       FuelType
	Gearbox    Gearbox
	Color      string
	Category   string
	Condition  string
	DefectNote string
}

type Listing struct {
	ID           ListingID
	Seller       SellerID
	Title        string
	Description  string
	Vehicle      Vehicle
	Location     string
	PriceCents   int64
	Photos       []string
	ThumbnailURL string
	Availability Availability
	Active       bool
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
	ListBySeller(ctx context.Context, seller SellerID) ([]*Listing, error)
}

type CreateListingParams struct {
	ID           ListingID
	Seller       SellerID
	Title        string
	Description  string
	Vehicle      Vehicle
	Location     string
	PriceCents   int64
	Photos       []string
	ThumbnailURL string
	Now          time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Seller)) == "" {
		return nil, errors.New("listings: seller is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if err := validateVehicle(params.Vehicle, params.Now); err != nil {
		return nil, err
	}
	if params.PriceCents < 0 {
		return nil, ErrInvalidPrice
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	listing := &Listing{
		ID:           params.ID,
		Seller:       params.Seller,
		Title:        strings.TrimSpace(params.Title),
		Description:  strings.TrimSpace(params.Description),
		Vehicle:      normalizeVehicle(params.Vehicle),
		Location:     strings.TrimSpace(params.Location),
		PriceCents:   params.PriceCents,
		Photos:       append([]string(nil), params.Photos...),
		ThumbnailURL: strings.TrimSpace(params.ThumbnailURL),
		Availability: Available,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, SellerID: listing.Seller, At: now})
	return listing, nil
}

// Acceptable is true when buyers may interact with the listing at all.
func (l *Listing) Acceptable() bool {
	return l.Active && l.Availability != Disabled
}

// Purchasable is true when a new purchase hold may be requested.
func (l *Listing) Purchasable() bool {
	return l.Acceptable() && l.Availability == Available
}

// MarkReserved places the exclusive hold. Only an available listing can be held.
func (l *Listing) MarkReserved(now time.Time) error {
	if l.Availability == Sold {
		return ErrSold
	}
	if l.Availability != Available {
		return ErrInvalidState
	}
	l.setAvailability(Reserved, now)
	return nil
}

// MarkAvailable releases the hold. A sold listing never becomes available again.
func (l *Listing) MarkAvailable(now time.Time) error {
	if l.Availability == Sold {
		return ErrSold
	}
	if l.Availability == Available {
		return nil
	}
	l.setAvailability(Available, now)
	return nil
}

// MarkSold is terminal and only reachable from a reserved listing.
func (l *Listing) MarkSold(now time.Time) error {
	if l.Availability == Sold {
		return nil
	}
	if l.Availability != Reserved {
		return ErrInvalidState
	}
	l.setAvailability(Sold, now)
	return nil
}

func (l *Listing) Disable(now time.Time, reason string) error {
	if !l.Active {
		return nil
	}
	l.Active = false
	l.UpdatedAt = now.UTC()
	l.Record(ListingDisabledEvent{ListingID: l.ID, Reason: reason, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Enable(now time.Time) error {
	if l.Availability == Sold {
		return ErrSold
	}
	if l.Active {
		return nil
	}
	l.Active = true
	l.UpdatedAt = now.UTC()
	l.Record(ListingEnabledEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

func (l *Listing) AddPhoto(url string, now time.Time) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrPhotoURLRequired
	}
	l.Photos = append(l.Photos, url)
	if l.ThumbnailURL == "" {
		l.ThumbnailURL = url
	}
	l.UpdatedAt = now.UTC()
	return nil
}

type UpdateListingParams struct {
	Title        string
	Description  string
	Vehicle      Vehicle
	Location     string
	PriceCents   int64
	ThumbnailURL string
	Now          time.Time
}

func (l *Listing) UpdateAttributes(params UpdateListingParams) error {
	if l.Availability == Sold {
		return ErrSold
	}
	if strings.TrimSpace(params.Title) == "" {
		return ErrTitleRequired
	}
	if err := validateVehicle(params.Vehicle, params.Now); err != nil {
		return err
	}
	if params.PriceCents < 0 {
		return ErrInvalidPrice
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	l.Title = strings.TrimSpace(params.Title)
	l.Description = strings.TrimSpace(params.Description)
	l.Vehicle = normalizeVehicle(params.Vehicle)
	l.Location = strings.TrimSpace(params.Location)
	l.PriceCents = params.PriceCents
	if trimmed := strings.TrimSpace(params.ThumbnailURL); trimmed != "" {
		l.ThumbnailURL = trimmed
	}
	l.UpdatedAt = now
	l.Record(ListingUpdatedEvent{ListingID: l.ID, At: now})
	return nil
}

func (l *Listing) setAvailability(to Availability, now time.Time) {
	from := l.Availability
	l.Availability = to
	l.UpdatedAt = now.UTC()
	l.Record(ListingAvailabilityChangedEvent{ListingID: l.ID, From: from, To: to, At: l.UpdatedAt})
}

const earliestVehicleYear = 1950

func validateVehicle(v Vehicle, now time.Time) error {
	if strings.TrimSpace(v.Brand) == "" {
		return ErrBrandRequired
	}
	if strings.TrimSpace(v.Model) == "" {
		return ErrModelRequired
	}
	if now.IsZero() {
		now = time.Now()
	}
	if v.Year < earliestVehicleYear || v.Year > now.Year()+1 {
		return ErrInvalidYear
	}
	if v.MileageKM < 0 {
		return ErrInvalidMileage
	}
	return nil
}

func normalizeVehicle(v Vehicle) Vehicle {
	v.Brand = strings.TrimSpace(v.Brand)
	v.Model = strings.TrimSpace(v.Model)
	v.Color = strings.TrimSpace(v.Color)
	v.Category = strings.TrimSpace(v.Category)
	v.Condition = strings.TrimSpace(v.Condition)
	v.DefectNote = strings.TrimSpace(v.DefectNote)
	v.Fuel = FuelType(strings.ToLower(strings.TrimSpace(string(v.Fuel))))
	v.Gearbox = Gearbox(strings.ToLower(strings.TrimSpace(string(v.Gearbox))))
	return v
}
