package ginserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"automarket/internal/app/commands"
	"automarket/internal/app/dto"
	adminapp "automarket/internal/app/handlers/admin"
	"automarket/internal/app/queries"
)

// AdminHandler exposes moderation and reporting endpoints. Every route
// requires the admin role.
type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h AdminHandler) ListUsers(c *gin.Context) {
	_, ok := requireRole(c, "admin")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := adminapp.ListUsersQuery{
		Query:  c.Query("q"),
		Limit:  parseIntWithDefault(c.Query("limit"), 50),
		Offset: parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[adminapp.ListUsersQuery, adminapp.UserPage](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) BlockUser(c *gin.Context) {
	admin, ok := requireRole(c, "admin")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := adminapp.BlockUserCommand{
		AdminID: admin.ID,
		UserID:  strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[adminapp.BlockUserCommand, *adminapp.UserModerationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) UnblockUser(c *gin.Context) {
	admin, ok := requireRole(c, "admin")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := adminapp.UnblockUserCommand{
		AdminID: admin.ID,
		UserID:  strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[adminapp.UnblockUserCommand, *adminapp.UserModerationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ListSellerRequests(c *gin.Context) {
	_, ok := requireRole(c, "admin")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	result, err := queries.Ask[adminapp.ListSellerRequestsQuery, dto.SellerRequestList](c.Request.Context(), h.Queries, adminapp.ListSellerRequestsQuery{})
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ApproveSellerRequest(c *gin.Context) {
	admin, ok := requireRole(c, "admin")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := adminapp.ApproveSellerRequestCommand{
		AdminID:   admin.ID,
		RequestID: strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[adminapp.ApproveSellerRequestCommand, *adminapp.SellerRequestDecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) RefuseSellerRequest(c *gin.Context) {
	admin, ok := requireRole(c, "admin")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := adminapp.RefuseSellerRequestCommand{
		AdminID:   admin.ID,
		RequestID: strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[adminapp.RefuseSellerRequestCommand, *adminapp.SellerRequestDecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) Stats(c *gin.Context) {
	_, ok := requireRole(c, "admin")
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, ok := parseFlexibleTime(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a valid date"})
			return
		}
		since = parsed
	}
	query := adminapp.SalesStatsQuery{Since: since}
	result, err := queries.Ask[adminapp.SalesStatsQuery, dto.SalesStats](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondDomainError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AdminHTTP = AdminHandler{}
