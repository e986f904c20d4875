package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"automarket/internal/app/commands"
	"automarket/internal/app/dto"
	meapp "automarket/internal/app/handlers/me"
	reservationapp "automarket/internal/app/handlers/reservation"
	"automarket/internal/app/queries"
)

// MeHandler serves the authenticated buyer's own data.
type MeHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h MeHandler) ListReservations(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := reservationapp.ListBuyerReservationsQuery{BuyerID: user.ID}
	result, err := queries.Ask[reservationapp.ListBuyerReservationsQuery, dto.ReservationList](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) ListFavorites(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := meapp.ListFavoritesQuery{BuyerID: user.ID}
	result, err := queries.Ask[meapp.ListFavoritesQuery, dto.ListingCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) AddFavorite(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := meapp.AddFavoriteCommand{
		BuyerID:   user.ID,
		ListingID: strings.TrimSpace(c.Param("listing_id")),
	}
	result, err := commands.Dispatch[meapp.AddFavoriteCommand, *meapp.FavoriteActionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) RemoveFavorite(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := meapp.RemoveFavoriteCommand{
		BuyerID:   user.ID,
		ListingID: strings.TrimSpace(c.Param("listing_id")),
	}
	result, err := commands.Dispatch[meapp.RemoveFavoriteCommand, *meapp.FavoriteActionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) ListNotifications(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := meapp.ListNotificationsQuery{UserID: user.ID}
	result, err := queries.Ask[meapp.ListNotificationsQuery, dto.NotificationFeed](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) MarkNotificationRead(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := meapp.MarkNotificationReadCommand{
		UserID:         user.ID,
		NotificationID: strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[meapp.MarkNotificationReadCommand, *meapp.MarkNotificationReadResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = MeHandler{}
