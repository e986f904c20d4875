package dto

import (
	"time"

	domainlistings "automarket/internal/domain/listings"
)

type VehicleView struct {
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	MileageKM  int    `json:"mileage_km"`
	Fuel       string `json:"fuel"`
	Gearbox    string `json:"gearbox"`
	Color      string `json:"color,omitempty"`
	Category   string `json:"category,omitempty"`
	Condition  string `json:"condition,omitempty"`
	DefectNote string `json:"defect_note,omitempty"`
}

type ListingSummary struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Vehicle      VehicleView `json:"vehicle"`
	Location     string      `json:"location,omitempty"`
	PriceCents   int64       `json:"price_cents"`
	Availability string      `json:"availability"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

type ListingDetail struct {
	ListingSummary
	SellerID    string    `json:"seller_id"`
	Description string    `json:"description,omitempty"`
	Photos      []string  `json:"photos,omitempty"`
	Active      bool      `json:"active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListingCatalog struct {
	Items  []ListingSummary `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// ListingOverview pairs the public detail with the live reservation picture.
type ListingOverview struct {
	Listing            ListingDetail `json:"listing"`
	ActiveReservations int           `json:"active_reservations"`
	HeldExclusively    bool          `json:"held_exclusively"`
}

func mapVehicle(v domainlistings.Vehicle) VehicleView {
	return VehicleView{
		Brand:      v.Brand,
		Model:      v.Model,
		Year:       v.Year,
		MileageKM:  v.MileageKM,
		Fuel:       string(v.Fuel),
		Gearbox:    string(v.Gearbox),
		Color:      v.Color,
		Category:   v.Category,
		Condition:  v.Condition,
		DefectNote: v.DefectNote,
	}
}

func MapListingSummary(l *domainlistings.Listing) ListingSummary {
	if l == nil {
		return ListingSummary{}
	}
	return ListingSummary{
		ID:           string(l.ID),
		Title:        l.Title,
		Vehicle:      mapVehicle(l.Vehicle),
		Location:     l.Location,
		PriceCents:   l.PriceCents,
		Availability: string(l.Availability),
		ThumbnailURL: l.ThumbnailURL,
		CreatedAt:    l.CreatedAt,
	}
}

func MapListingDetail(l *domainlistings.Listing) ListingDetail {
	if l == nil {
		return ListingDetail{}
	}
	return ListingDetail{
		ListingSummary: MapListingSummary(l),
		SellerID:       string(l.Seller),
		Description:    l.Description,
		Photos:         append([]string(nil), l.Photos...),
		Active:         l.Active,
		UpdatedAt:      l.UpdatedAt,
	}
}

func MapCatalog(result domainlistings.SearchResult, params domainlistings.SearchParams) ListingCatalog {
	items := make([]ListingSummary, 0, len(result.Items))
	for _, listing := range result.Items {
		items = append(items, MapListingSummary(listing))
	}
	return ListingCatalog{
		Items:  items,
		Total:  result.Total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
}
