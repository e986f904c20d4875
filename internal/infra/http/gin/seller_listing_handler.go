package ginserver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"automarket/internal/app/commands"
	"automarket/internal/app/dto"
	listingapp "automarket/internal/app/handlers/listings"
	"automarket/internal/app/queries"
	domainlistings "automarket/internal/domain/listings"
)

const maxListingPhotoSizeBytes int64 = 10 * 1024 * 1024

type SellerListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h SellerListingHandler) List(c *gin.Context) {
	principal, ok := requireRole(c, "seller")
	if !ok {
		return
	}
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}

	query := listingapp.ListSellerListingsQuery{SellerID: principal.ID}
	result, err := queries.Ask[listingapp.ListSellerListingsQuery, dto.ListingCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SellerListingHandler) Create(c *gin.Context) {
	principal, ok := requireRole(c, "seller")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	var req sellerListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}

	payload, err := buildSellerListingPayload(req)
	if err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}

	cmd := listingapp.CreateSellerListingCommand{SellerID: principal.ID, Payload: payload}
	result, err := commands.Dispatch[listingapp.CreateSellerListingCommand, *dto.ListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/seller/listings/%s", result.ID))
	c.JSON(http.StatusCreated, result)
}

func (h SellerListingHandler) Update(c *gin.Context) {
	principal, ok := requireRole(c, "seller")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	var req sellerListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}

	payload, err := buildSellerListingPayload(req)
	if err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}

	cmd := listingapp.UpdateSellerListingCommand{
		SellerID:  principal.ID,
		ListingID: c.Param("id"),
		Payload:   payload,
	}
	result, err := commands.Dispatch[listingapp.UpdateSellerListingCommand, *dto.ListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SellerListingHandler) Enable(c *gin.Context) {
	principal, ok := requireRole(c, "seller")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	cmd := listingapp.EnableSellerListingCommand{
		SellerID:  principal.ID,
		ListingID: c.Param("id"),
	}
	result, err := commands.Dispatch[listingapp.EnableSellerListingCommand, *dto.ListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SellerListingHandler) Disable(c *gin.Context) {
	principal, ok := requireRole(c, "seller")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	var req disableListingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondWithError(c, http.StatusBadRequest, err)
			return
		}
	}

	cmd := listingapp.DisableSellerListingCommand{
		SellerID:  principal.ID,
		ListingID: c.Param("id"),
		Reason:    strings.TrimSpace(req.Reason),
	}
	result, err := commands.Dispatch[listingapp.DisableSellerListingCommand, *dto.ListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SellerListingHandler) UploadPhoto(c *gin.Context) {
	principal, ok := requireRole(c, "seller")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	listingID := strings.TrimSpace(c.Param("id"))
	if listingID == "" {
		h.respondWithError(c, http.StatusBadRequest, errors.New("listing id is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.respondWithError(c, http.StatusBadRequest, fmt.Errorf("file is required: %w", err))
		return
	}
	if fileHeader.Size <= 0 {
		h.respondWithError(c, http.StatusBadRequest, errors.New("file is empty"))
		return
	}
	if fileHeader.Size > maxListingPhotoSizeBytes {
		h.respondWithError(c, http.StatusBadRequest, fmt.Errorf("file too large (max %d MB)", maxListingPhotoSizeBytes/1024/1024))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respondWithError(c, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxListingPhotoSizeBytes+1024))
	if err != nil {
		h.respondWithError(c, http.StatusInternalServerError, fmt.Errorf("cannot read file: %w", err))
		return
	}
	if len(data) == 0 {
		h.respondWithError(c, http.StatusBadRequest, errors.New("file is empty"))
		return
	}
	if int64(len(data)) > maxListingPhotoSizeBytes {
		h.respondWithError(c, http.StatusBadRequest, fmt.Errorf("file too large (max %d MB)", maxListingPhotoSizeBytes/1024/1024))
		return
	}

	contentType := http.DetectContentType(data)
	if !isAllowedImageType(contentType) {
		h.respondWithError(c, http.StatusBadRequest, fmt.Errorf("unsupported content type: %s", contentType))
		return
	}

	objectKey := buildPhotoObjectKey(listingID, fileHeader.Filename, contentType)
	cmd := listingapp.UploadSellerListingPhotoCommand{
		SellerID:    principal.ID,
		ListingID:   listingID,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Reader:      bytes.NewReader(data),
	}
	result, err := commands.Dispatch[listingapp.UploadSellerListingPhotoCommand, *listingapp.PhotoUploadResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h SellerListingHandler) handleError(c *gin.Context, err error) {
	if errors.Is(err, listingapp.ErrListingNotOwned) {
		h.respondWithError(c, http.StatusNotFound, err)
		return
	}
	respondDomainError(c, h.Logger, err)
}

func (h SellerListingHandler) respondWithError(c *gin.Context, status int, err error) {
	if h.Logger != nil {
		fields := []any{"status", status, "error", err, "path", c.FullPath()}
		if seller, ok := currentPrincipal(c); ok {
			fields = append(fields, "seller_id", seller.ID)
		}
		h.Logger.Error("seller listing request failed", fields...)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func isAllowedImageType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/webp":
		return true
	default:
		return false
	}
}

func extensionForContentType(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

func buildPhotoObjectKey(listingID, filename, contentType string) string {
	ext := extensionForContentType(contentType)
	if ext == "" {
		ext = strings.ToLower(path.Ext(filename))
	}
	if ext == "" {
		ext = ".img"
	}
	safeListing := sanitizePathToken(listingID)
	return fmt.Sprintf("listings/%s/%s%s", safeListing, uuid.NewString(), ext)
}

func sanitizePathToken(value string) string {
	if strings.TrimSpace(value) == "" {
		return "listing"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	result := strings.Trim(b.String(), "-")
	if result == "" {
		return "listing"
	}
	return result
}

func buildSellerListingPayload(req sellerListingRequest) (listingapp.SellerListingPayload, error) {
	fuel := strings.ToLower(strings.TrimSpace(req.Vehicle.Fuel))
	switch domainlistings.FuelType(fuel) {
	case "", domainlistings.FuelPetrol, domainlistings.FuelDiesel, domainlistings.FuelElectric, domainlistings.FuelHybrid:
	default:
		return listingapp.SellerListingPayload{}, fmt.Errorf("fuel must be petrol, diesel, electric or hybrid")
	}
	gearbox := strings.ToLower(strings.TrimSpace(req.Vehicle.Gearbox))
	switch domainlistings.Gearbox(gearbox) {
	case "", domainlistings.GearboxManual, domainlistings.GearboxAutomatic:
	default:
		return listingapp.SellerListingPayload{}, fmt.Errorf("gearbox must be manual or automatic")
	}

	payload := listingapp.SellerListingPayload{
		Title:       req.Title,
		Description: req.Description,
		Vehicle: domainlistings.Vehicle{
			Brand:      strings.TrimSpace(req.Vehicle.Brand),
			Model:      strings.TrimSpace(req.Vehicle.Model),
			Year:       req.Vehicle.Year,
			MileageKM:  req.Vehicle.MileageKM,
			Fuel:       domainlistings.FuelType(fuel),
			Gearbox:    domainlistings.Gearbox(gearbox),
			Color:      strings.TrimSpace(req.Vehicle.Color),
			Category:   strings.TrimSpace(req.Vehicle.Category),
			Condition:  strings.TrimSpace(req.Vehicle.Condition),
			DefectNote: strings.TrimSpace(req.Vehicle.DefectNote),
		},
		Location:     strings.TrimSpace(req.Location),
		PriceCents:   req.PriceCents,
		Photos:       cleanStrings(req.Photos),
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
	}
	return payload, nil
}

func cleanStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type sellerListingRequest struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Vehicle      sellerVehicleRequest `json:"vehicle"`
	Location     string               `json:"location"`
	PriceCents   int64                `json:"price_cents"`
	Photos       []string             `json:"photos"`
	ThumbnailURL string               `json:"thumbnail_url"`
}

type sellerVehicleRequest struct {
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	MileageKM  int    `json:"mileage_km"`
	Fuel       string `json:"fuel"`
	Gearbox    string `json:"gearbox"`
	Color      string `json:"color"`
	Category   string `json:"category"`
	Condition  string `json:"condition"`
	DefectNote string `json:"defect_note"`
}

type disableListingRequest struct {
	Reason string `json:"reason"`
}

var _ SellerListingHTTP = SellerListingHandler{}
