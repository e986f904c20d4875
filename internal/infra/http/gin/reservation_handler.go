package ginserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"automarket/internal/app/commands"
	"automarket/internal/app/dto"
	reservationapp "automarket/internal/app/handlers/reservation"
	"automarket/internal/app/queries"
)

// ReservationHandler drives the buyer side of the reservation lifecycle.
type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	ListingID string    `json:"listing_id"`
	Kind      string    `json:"kind"`
	SlotAt    time.Time `json:"slot_at"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	buyer, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reservationapp.RequestReservationCommand{
		CommandID:       generateCommandID(),
		ListingID:       req.ListingID,
		BuyerID:         buyer.ID,
		Kind:            req.Kind,
		SlotAt:          req.SlotAt,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[reservationapp.RequestReservationCommand, *reservationapp.RequestReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) Cancel(c *gin.Context) {
	buyer, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := reservationapp.CancelReservationCommand{
		BuyerID:       buyer.ID,
		ReservationID: strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[reservationapp.CancelReservationCommand, *reservationapp.DecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Checkout(c *gin.Context) {
	buyer, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := reservationapp.CompleteCheckoutCommand{
		BuyerID:         buyer.ID,
		ReservationID:   strings.TrimSpace(c.Param("id")),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[reservationapp.CompleteCheckoutCommand, *reservationapp.CheckoutResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Slots lists the free and taken visit hours of a listing for one day.
func (h ReservationHandler) Slots(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	day, ok := parseFlexibleTime(c.Query("day"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day is required, format 2006-01-02"})
		return
	}
	query := reservationapp.ListingSlotsQuery{
		ListingID: strings.TrimSpace(c.Param("id")),
		Day:       day,
	}
	result, err := queries.Ask[reservationapp.ListingSlotsQuery, dto.SlotBoard](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ ReservationHTTP = ReservationHandler{}
