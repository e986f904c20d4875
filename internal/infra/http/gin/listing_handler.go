package ginserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"automarket/internal/app/dto"
	listingapp "automarket/internal/app/handlers/listings"
	"automarket/internal/app/queries"
)

type ListingHTTP interface {
	Catalog(c *gin.Context)
	Overview(c *gin.Context)
}

// ListingHandler wires the public catalog queries to HTTP.
type ListingHandler struct {
	Queries queries.Bus
}

// Catalog responds with a filtered page of active listings.
func (h ListingHandler) Catalog(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	query := listingapp.SearchCatalogQuery{
		Brand:         c.Query("brand"),
		Model:         c.Query("model"),
		Fuel:          c.Query("fuel"),
		Gearbox:       c.Query("gearbox"),
		Category:      c.Query("category"),
		Location:      c.Query("location"),
		Query:         c.Query("q"),
		PriceMinCents: parseInt64(c.Query("price_min_cents")),
		PriceMaxCents: parseInt64(c.Query("price_max_cents")),
		YearMin:       parseInt(c.Query("year_min")),
		YearMax:       parseInt(c.Query("year_max")),
		MaxMileageKM:  parseInt(c.Query("max_mileage_km")),
		Sort:          c.Query("sort"),
		Limit:         parseIntWithDefault(c.Query("limit"), 24),
		Offset:        parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[listingapp.SearchCatalogQuery, dto.ListingCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Overview(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	listingID := c.Param("id")
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing id is required"})
		return
	}
	query := listingapp.GetOverviewQuery{ListingID: listingID}
	result, err := queries.Ask[listingapp.GetOverviewQuery, dto.ListingOverview](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}

func parseFlexibleTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

func parseIntWithDefault(raw string, fallback int) int {
	value := parseInt(raw)
	if value == 0 {
		return fallback
	}
	return value
}

func parseInt64(raw string) int64 {
	value, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if value < 0 {
		return 0
	}
	return value
}
