package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"automarket/internal/app/commands"
	"automarket/internal/app/dto"
	reservationapp "automarket/internal/app/handlers/reservation"
	"automarket/internal/app/queries"
)

type SellerReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type rejectReservationRequest struct {
	Reason string `json:"reason"`
}

func (h SellerReservationHandler) List(c *gin.Context) {
	seller, ok := requireRole(c, "seller")
	if !ok {
		return
	}
	if h.Queries == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("queries bus unavailable"))
		return
	}

	query := reservationapp.ListSellerReservationsQuery{
		SellerID: seller.ID,
		Status:   c.Query("status"),
	}
	result, err := queries.Ask[reservationapp.ListSellerReservationsQuery, dto.ReservationList](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SellerReservationHandler) Approve(c *gin.Context) {
	seller, ok := requireRole(c, "seller")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	cmd := reservationapp.ApproveReservationCommand{
		SellerID:      seller.ID,
		ReservationID: strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[reservationapp.ApproveReservationCommand, *reservationapp.DecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SellerReservationHandler) Reject(c *gin.Context) {
	seller, ok := requireRole(c, "seller")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	var req rejectReservationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondWithError(c, http.StatusBadRequest, err)
			return
		}
	}

	cmd := reservationapp.RejectReservationCommand{
		SellerID:      seller.ID,
		ReservationID: strings.TrimSpace(c.Param("id")),
		Reason:        strings.TrimSpace(req.Reason),
	}
	result, err := commands.Dispatch[reservationapp.RejectReservationCommand, *reservationapp.DecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SellerReservationHandler) CompleteVisit(c *gin.Context) {
	seller, ok := requireRole(c, "seller")
	if !ok {
		return
	}
	if h.Commands == nil {
		h.respondWithError(c, http.StatusServiceUnavailable, errors.New("commands bus unavailable"))
		return
	}

	cmd := reservationapp.CompleteVisitCommand{
		SellerID:      seller.ID,
		ReservationID: strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[reservationapp.CompleteVisitCommand, *reservationapp.DecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SellerReservationHandler) respondWithError(c *gin.Context, status int, err error) {
	if h.Logger != nil {
		fields := []any{"status", status, "error", err, "path", c.FullPath()}
		if seller, ok := currentPrincipal(c); ok {
			fields = append(fields, "seller_id", seller.ID)
		}
		h.Logger.Error("seller reservation request failed", fields...)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

var _ SellerReservationHTTP = SellerReservationHandler{}
