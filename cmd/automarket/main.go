package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"automarket/internal/app/commands"
	adminapp "automarket/internal/app/handlers/admin"
	listingapp "automarket/internal/app/handlers/listings"
	meapp "automarket/internal/app/handlers/me"
	reservationapp "automarket/internal/app/handlers/reservation"
	"automarket/internal/app/middleware"
	appoutbox "automarket/internal/app/outbox"
	"automarket/internal/app/queries"
	authsvc "automarket/internal/app/services/auth"
	"automarket/internal/app/uow"
	domainauth "automarket/internal/domain/auth"
	"automarket/internal/domain/listings"
	domainuser "automarket/internal/domain/user"
	"automarket/internal/infra/broker/kafka"
	"automarket/internal/infra/config"
	mongodb "automarket/internal/infra/db/mongo"
	ginserver "automarket/internal/infra/http/gin"
	"automarket/internal/infra/notify"
	"automarket/internal/infra/obs"
	infraoutbox "automarket/internal/infra/outbox"
	"automarket/internal/infra/security"
	"automarket/internal/infra/storage/memory"
	"automarket/internal/infra/storage/s3"
	"automarket/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using in-memory fallback configuration", "error", err)
		cfg = fallbackConfig(env)
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if err := app.seedAdminAccount(ctx, logger); err != nil {
		logger.Warn("admin account seeding failed", "error", err)
	}

	fixturesPath := getenv("LISTINGS_FIXTURES", "")
	if fixturesPath == "" {
		fixturesPath = defaultListingFixturesPath()
	}
	if err := app.loadListingFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", fixturesPath)
	}

	for _, run := range app.runners {
		run := run
		go func() {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	runners  []func(ctx context.Context) error
	ready    func() error

	listings listings.ListingRepository
	auth     *authsvc.Service
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory     uow.UoWFactory
		outboxStore    appoutbox.Outbox
		idStore        middleware.IdempotencyStore
		listingsRepo   listings.ListingRepository
		usersRepo      domainuser.Repository
		sellerRequests domainuser.SellerRequestRepository
		sessions       domainauth.SessionStore
		runners        []func(ctx context.Context) error
		ready          = func() error { return nil }
	)

	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx); err != nil {
			return application{}, fmt.Errorf("mongo ping: %w", err)
		}
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		mongoListings := mongodb.NewListingRepository(client.DB)
		listingsRepo = mongoListings
		uowFactory = mongodb.Factory{
			DB:                client.DB,
			ListingsRepo:      mongoListings,
			ReservationsRepo:  mongodb.NewReservationRepository(client.DB),
			PurchasesRepo:     mongodb.NewPurchaseRepository(client.DB),
			FavoritesRepo:     mongodb.NewFavoriteRepository(client.DB),
			NotificationsRepo: mongodb.NewNotificationRepository(client.DB),
		}
		idStore = mongodb.NewIdempotencyStore(client.DB)
		usersRepo = mongodb.NewUserRepository(client.DB)
		sessions = mongodb.NewSessionStore(client.DB)
		sellerRequests = mongodb.NewSellerRequestRepository(client.DB)

		store := infraoutbox.NewStore(client.DB)
		outboxStore = store

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, fmt.Errorf("kafka producer: %w", err)
			}
			relay := &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			runners = append(runners, relay.Run)

			auditTopic := cfg.KafkaTopicPrefix + "reservation.events.v1"
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, "automarket-audit", nil, &worker.AuditLogger{Logger: logger})
			if err != nil {
				return application{}, fmt.Errorf("kafka consumer: %w", err)
			}
			runners = append(runners, func(ctx context.Context) error {
				defer consumer.Close()
				return consumer.Run(ctx, []string{auditTopic})
			})
		}
	} else {
		memListings := memory.NewListingRepository()
		listingsRepo = memListings
		uowFactory = memory.Factory{
			ListingsRepo:      memListings,
			ReservationsRepo:  memory.NewReservationRepository(),
			PurchasesRepo:     memory.NewPurchaseRepository(),
			FavoritesRepo:     memory.NewFavoriteRepository(),
			NotificationsRepo: memory.NewNotificationRepository(),
		}
		outboxStore = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
		usersRepo = memory.NewUserRepository()
		sessions = memory.NewSessionStore()
		sellerRequests = memory.NewSellerRequestRepository()
	}

	var uploader s3.Uploader = s3.NoopUploader{}
	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			logger.Warn("photo storage unavailable, uploads disabled", "error", err)
		} else {
			uploader = client
		}
	}

	authService := &authsvc.Service{
		Users:          usersRepo,
		SellerRequests: sellerRequests,
		Sessions:       sessions,
		Passwords:      security.BcryptHasher{},
		Tokens:         security.RandomTokenGenerator{},
		SessionTTL:     cfg.SessionTTL,
		Logger:         logger,
	}

	notifier := &notify.Notifier{Logger: logger}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, reservationapp.RequestReservationCommand{}.Key(), &reservationapp.RequestReservationHandler{
		UoWFactory:   uowFactory,
		Outbox:       outboxStore,
		Encoder:      encoder,
		Notifier:     notifier,
		PurchaseHold: cfg.PurchaseHoldTTL,
		VisitHold:    cfg.VisitHoldTTL,
	})
	commands.RegisterHandler(commandBus, reservationapp.ApproveReservationCommand{}.Key(), &reservationapp.ApproveReservationHandler{
		Outbox:   outboxStore,
		Encoder:  encoder,
		Notifier: notifier,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, reservationapp.RejectReservationCommand{}.Key(), &reservationapp.RejectReservationHandler{
		Outbox:   outboxStore,
		Encoder:  encoder,
		Notifier: notifier,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, reservationapp.CancelReservationCommand{}.Key(), &reservationapp.CancelReservationHandler{
		Outbox:         outboxStore,
		Encoder:        encoder,
		Notifier:       notifier,
		CancelLeadTime: cfg.CancelLeadTime,
		Logger:         logger,
	})
	commands.RegisterHandler(commandBus, reservationapp.CompleteCheckoutCommand{}.Key(), &reservationapp.CompleteCheckoutHandler{
		Outbox:   outboxStore,
		Encoder:  encoder,
		Notifier: notifier,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, reservationapp.CompleteVisitCommand{}.Key(), &reservationapp.CompleteVisitHandler{
		Outbox:  outboxStore,
		Encoder: encoder,
		Logger:  logger,
	})
	commands.RegisterHandler(commandBus, reservationapp.ExpireStaleCommand{}.Key(), &reservationapp.ExpireStaleHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Notifier:   notifier,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, listingapp.CreateSellerListingCommand{}.Key(), &listingapp.CreateSellerListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.UpdateSellerListingCommand{}.Key(), &listingapp.UpdateSellerListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.EnableSellerListingCommand{}.Key(), &listingapp.EnableSellerListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.DisableSellerListingCommand{}.Key(), &listingapp.DisableSellerListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.UploadSellerListingPhotoCommand{}.Key(), &listingapp.UploadSellerListingPhotoHandler{
		Logger:   logger,
		Uploader: uploader,
	})
	commands.RegisterHandler(commandBus, meapp.AddFavoriteCommand{}.Key(), &meapp.AddFavoriteHandler{Logger: logger})
	commands.RegisterHandler(commandBus, meapp.RemoveFavoriteCommand{}.Key(), &meapp.RemoveFavoriteHandler{Logger: logger})
	commands.RegisterHandler(commandBus, meapp.MarkNotificationReadCommand{}.Key(), &meapp.MarkNotificationReadHandler{})
	commands.RegisterHandler(commandBus, adminapp.BlockUserCommand{}.Key(), &adminapp.BlockUserHandler{
		Users:    usersRepo,
		Sessions: sessions,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, adminapp.UnblockUserCommand{}.Key(), &adminapp.UnblockUserHandler{
		Users:  usersRepo,
		Logger: logger,
	})
	commands.RegisterHandler(commandBus, adminapp.ApproveSellerRequestCommand{}.Key(), &adminapp.ApproveSellerRequestHandler{
		Users:    usersRepo,
		Requests: sellerRequests,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, adminapp.RefuseSellerRequestCommand{}.Key(), &adminapp.RefuseSellerRequestHandler{
		Requests: sellerRequests,
		Logger:   logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, listingapp.SearchCatalogQuery{}.Key(), &listingapp.SearchCatalogHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, listingapp.GetOverviewQuery{}.Key(), &listingapp.GetOverviewHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, listingapp.ListSellerListingsQuery{}.Key(), &listingapp.ListSellerListingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, reservationapp.ListBuyerReservationsQuery{}.Key(), &reservationapp.ListBuyerReservationsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, reservationapp.ListSellerReservationsQuery{}.Key(), &reservationapp.ListSellerReservationsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, reservationapp.ListingSlotsQuery{}.Key(), &reservationapp.ListingSlotsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, meapp.ListFavoritesQuery{}.Key(), &meapp.ListFavoritesHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, meapp.ListNotificationsQuery{}.Key(), &meapp.ListNotificationsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, adminapp.ListUsersQuery{}.Key(), &adminapp.ListUsersHandler{Users: usersRepo})
	queries.RegisterHandler(queryBus, adminapp.ListSellerRequestsQuery{}.Key(), &adminapp.ListSellerRequestsHandler{Requests: sellerRequests})
	queries.RegisterHandler(queryBus, adminapp.SalesStatsQuery{}.Key(), &adminapp.SalesStatsHandler{UoWFactory: uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	authMiddleware := ginserver.AuthMiddleware{Service: authService, Logger: logger}

	sweeper := &worker.Sweeper{
		Commands:  commandBusWithMiddleware,
		Interval:  cfg.SweepInterval,
		BatchSize: cfg.SweepBatchSize,
		Logger:    logger,
	}
	runners = append(runners, sweeper.Run)

	return application{
		handlers: ginserver.Handlers{
			Auth: ginserver.AuthHandler{
				Service: authService,
				Logger:  logger,
			},
			Listing: ginserver.ListingHandler{
				Queries: queryBusWithMiddleware,
			},
			Reservation: ginserver.ReservationHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			SellerListing: ginserver.SellerListingHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			SellerReservation: ginserver.SellerReservationHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			Me: ginserver.MeHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			Admin: ginserver.AdminHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			AuthMiddleware: authMiddleware.Handle,
		},
		runners:  runners,
		ready:    ready,
		listings: listingsRepo,
		auth:     authService,
	}, nil
}

// seedAdminAccount creates the bootstrap admin when ADMIN_EMAIL and
// ADMIN_PASSWORD are set and no account with that email exists yet.
func (a application) seedAdminAccount(ctx context.Context, logger *slog.Logger) error {
	email := getenv("ADMIN_EMAIL", "")
	password := getenv("ADMIN_PASSWORD", "")
	if email == "" || password == "" {
		return nil
	}
	if _, err := a.auth.Users.ByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		return err
	}

	hash, err := a.auth.Passwords.Hash(password)
	if err != nil {
		return err
	}
	account, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Email:        email,
		Name:         getenv("ADMIN_NAME", "Administrator"),
		PasswordHash: hash,
		Roles:        []domainuser.Role{domainuser.RoleBuyer, domainuser.RoleAdmin},
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return err
	}
	if err := a.auth.Users.Save(ctx, account); err != nil {
		return err
	}
	logger.Info("admin account seeded", "email", email)
	return nil
}

func (a application) loadListingFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("listing fixtures file empty", "path", path)
		return nil
	}

	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	if len(fixtures) == 0 {
		return nil
	}

	now := time.Now()
	for _, fx := range fixtures {
		if _, err := a.listings.ByID(ctx, listings.ListingID(fx.ID)); err == nil {
			continue
		}
		listing, err := listings.NewListing(listings.CreateListingParams{
			ID:          listings.ListingID(fx.ID),
			Seller:      listings.SellerID(fx.Seller),
			Title:       fx.Title,
			Description: fx.Description,
			Vehicle: listings.Vehicle{
				Brand:      fx.Vehicle.Brand,
				Model:      fx.Vehicle.Model,
				Year:       fx.Vehicle.Year,
				MileageKM:  fx.Vehicle.MileageKM,
				Fuel:       listings.FuelType(fx.Vehicle.Fuel),
				Gearbox:    listings.Gearbox(fx.Vehicle.Gearbox),
				Color:      fx.Vehicle.Color,
				Category:   fx.Vehicle.Category,
				Condition:  fx.Vehicle.Condition,
				DefectNote: fx.Vehicle.DefectNote,
			},
			Location:     fx.Location,
			PriceCents:   fx.PriceCents,
			Photos:       append([]string(nil), fx.Photos...),
			ThumbnailURL: fx.ThumbnailURL,
			Now:          now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := a.listings.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		logger.Info("listing fixture imported", "listing_id", listing.ID)
	}
	return nil
}

type listingFixture struct {
	ID           string         `json:"id"`
	Seller       string         `json:"seller"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Vehicle      vehicleFixture `json:"vehicle"`
	Location     string         `json:"location"`
	PriceCents   int64          `json:"price_cents"`
	Photos       []string       `json:"photos"`
	ThumbnailURL string         `json:"thumbnail_url"`
}

type vehicleFixture struct {
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

func fallbackConfig(env string) config.Config {
	return config.Config{
		Env:                env,
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		IdempotencyTTL:     168 * time.Hour,
		OutboxPollInterval: 500 * time.Millisecond,
		PurchaseHoldTTL:    48 * time.Hour,
		VisitHoldTTL:       24 * time.Hour,
		CancelLeadTime:     2 * time.Hour,
		SweepInterval:      time.Minute,
		SweepBatchSize:     100,
		SessionTTL:         24 * time.Hour,
	}
}

func defaultListingFixturesPath() string {
	return filepath.Join("data", "listings.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
