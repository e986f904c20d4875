package listings

import "strings"

// CatalogSort defines a supported ordering.
type CatalogSort string

const (
	SortByPriceAsc    CatalogSort = "price_asc"
	SortByPriceDesc   CatalogSort = "price_desc"
	SortByNewest      CatalogSort = "newest"
	SortByMileageAsc  CatalogSort = "mileage_asc"
	SortByYearDesc    CatalogSort = "year_desc"

	defaultSearchLimit = 24
	maxSearchLimit     = 60
)

// SearchParams describe catalog filters and paging options.
type SearchParams struct {
	Seller         SellerID
	Brand          string
	Model          string
	Fuel           FuelType
	Gearbox        Gearbox
	Category       string
	Location       string
	Query          string
	PriceMinCents  int64
	PriceMaxCents  int64
	YearMin        int
	YearMax        int
	MaxMileageKM   int
	Availabilities []Availability
	Sort           CatalogSort
	Limit          int
	Offset         int
	OnlyActive     bool
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.Brand = strings.TrimSpace(strings.ToLower(normalized.Brand))
	normalized.Model = strings.TrimSpace(strings.ToLower(normalized.Model))
	normalized.Category = strings.TrimSpace(strings.ToLower(normalized.Category))
	normalized.Location = strings.TrimSpace(strings.ToLower(normalized.Location))
	normalized.Query = strings.TrimSpace(strings.ToLower(normalized.Query))
	normalized.Fuel = FuelType(strings.TrimSpace(strings.ToLower(string(normalized.Fuel))))
	normalized.Gearbox = Gearbox(strings.TrimSpace(strings.ToLower(string(normalized.Gearbox))))
	if normalized.PriceMinCents < 0 {
		normalized.PriceMinCents = 0
	}
	if normalized.PriceMaxCents > 0 && normalized.PriceMaxCents < normalized.PriceMinCents {
		normalized.PriceMaxCents = 0
	}
	if normalized.YearMin < 0 {
		normalized.YearMin = 0
	}
	if normalized.YearMax > 0 && normalized.YearMax < normalized.YearMin {
		normalized.YearMax = 0
	}
	if normalized.MaxMileageKM < 0 {
		normalized.MaxMileageKM = 0
	}
	if normalized.Limit <= 0 {
		normalized.Limit = defaultSearchLimit
	}
	if normalized.Limit > maxSearchLimit {
		normalized.Limit = maxSearchLimit
	}
	if normalized.Offset < 0 {
		normalized.Offset = 0
	}
	switch normalized.Sort {
	case SortByPriceAsc, SortByPriceDesc, SortByNewest, SortByMileageAsc, SortByYearDesc:
	default:
		normalized.Sort = SortByNewest
	}
	return normalized
}

// SearchResult wraps search hits with meta.
type SearchResult struct {
	Items []*Listing
	Total int
}
