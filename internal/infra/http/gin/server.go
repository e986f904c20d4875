package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"automarket/internal/infra/config"
	"automarket/internal/infra/obs"
)

type ReservationHTTP interface {
	Create(c *gin.Context)
	Cancel(c *gin.Context)
	Checkout(c *gin.Context)
	Slots(c *gin.Context)
}

type SellerListingHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Enable(c *gin.Context)
	Disable(c *gin.Context)
	UploadPhoto(c *gin.Context)
}

type SellerReservationHTTP interface {
	List(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	CompleteVisit(c *gin.Context)
}

type MeHTTP interface {
	ListReservations(c *gin.Context)
	ListFavorites(c *gin.Context)
	AddFavorite(c *gin.Context)
	RemoveFavorite(c *gin.Context)
	ListNotifications(c *gin.Context)
	MarkNotificationRead(c *gin.Context)
}

type AdminHTTP interface {
	ListUsers(c *gin.Context)
	BlockUser(c *gin.Context)
	UnblockUser(c *gin.Context)
	ListSellerRequests(c *gin.Context)
	ApproveSellerRequest(c *gin.Context)
	RefuseSellerRequest(c *gin.Context)
	Stats(c *gin.Context)
}

type Handlers struct {
	Auth              AuthHTTP
	Listing           ListingHTTP
	Reservation       ReservationHTTP
	SellerListing     SellerListingHTTP
	SellerReservation SellerReservationHTTP
	Me                MeHTTP
	Admin             AdminHTTP
	AuthMiddleware    gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.Catalog)
		api.GET("/listings/:id/overview", h.Listing.Overview)
	}
	if h.Reservation != nil {
		api.POST("/reservations", h.Reservation.Create)
		api.POST("/reservations/:id/cancel", h.Reservation.Cancel)
		api.POST("/reservations/:id/checkout", h.Reservation.Checkout)
		api.GET("/listings/:id/slots", h.Reservation.Slots)
	}
	if h.SellerListing != nil {
		sellerListings := api.Group("/seller/listings")
		sellerListings.GET("", h.SellerListing.List)
		sellerListings.POST("", h.SellerListing.Create)
		sellerListings.PUT("/:id", h.SellerListing.Update)
		sellerListings.POST("/:id/enable", h.SellerListing.Enable)
		sellerListings.POST("/:id/disable", h.SellerListing.Disable)
		sellerListings.POST("/:id/photos", h.SellerListing.UploadPhoto)
	}
	if h.SellerReservation != nil {
		sellerReservations := api.Group("/seller/reservations")
		sellerReservations.GET("", h.SellerReservation.List)
		sellerReservations.POST("/:id/approve", h.SellerReservation.Approve)
		sellerReservations.POST("/:id/reject", h.SellerReservation.Reject)
		sellerReservations.POST("/:id/complete-visit", h.SellerReservation.CompleteVisit)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/reservations", h.Me.ListReservations)
		meGroup.GET("/favorites", h.Me.ListFavorites)
		meGroup.PUT("/favorites/:listing_id", h.Me.AddFavorite)
		meGroup.DELETE("/favorites/:listing_id", h.Me.RemoveFavorite)
		meGroup.GET("/notifications", h.Me.ListNotifications)
		meGroup.POST("/notifications/:id/read", h.Me.MarkNotificationRead)
	}
	if h.Admin != nil {
		adminGroup := api.Group("/admin")
		adminGroup.GET("/users", h.Admin.ListUsers)
		adminGroup.POST("/users/:id/block", h.Admin.BlockUser)
		adminGroup.POST("/users/:id/unblock", h.Admin.UnblockUser)
		adminGroup.GET("/seller-requests", h.Admin.ListSellerRequests)
		adminGroup.POST("/seller-requests/:id/approve", h.Admin.ApproveSellerRequest)
		adminGroup.POST("/seller-requests/:id/refuse", h.Admin.RefuseSellerRequest)
		adminGroup.GET("/stats", h.Admin.Stats)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
