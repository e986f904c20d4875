package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"automarket/internal/app/uow"
	domainlistings "automarket/internal/domain/listings"
	domainreservation "automarket/internal/domain/reservation"
	domainuser "automarket/internal/domain/user"
)

// respondDomainError maps domain failures onto HTTP statuses. Anything not
// recognized is a 500 so programming errors stay loud.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domainreservation.ErrNotFound),
		errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound),
		errors.Is(err, domainuser.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domainreservation.ErrForbidden),
		errors.Is(err, domainlistings.ErrNotOwned):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domainreservation.ErrConflict),
		errors.Is(err, domainuser.ErrEmailAlreadyUsed),
		errors.Is(err, domainuser.ErrRequestPending),
		errors.Is(err, domainuser.ErrRequestDecided):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainreservation.ErrInvalidTransition),
		errors.Is(err, domainreservation.ErrInvalidState),
		errors.Is(err, domainlistings.ErrInvalidState),
		errors.Is(err, domainlistings.ErrSold),
		errors.Is(err, domainlistings.ErrNotActive):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domainlistings.ErrTitleRequired),
		errors.Is(err, domainlistings.ErrBrandRequired),
		errors.Is(err, domainlistings.ErrModelRequired),
		errors.Is(err, domainlistings.ErrInvalidYear),
		errors.Is(err, domainlistings.ErrInvalidMileage),
		errors.Is(err, domainlistings.ErrInvalidPrice),
		errors.Is(err, domainlistings.ErrPhotoURLRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, uow.ErrUnitOfWorkMissing):
		if logger != nil {
			logger.Error("unit of work missing", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
