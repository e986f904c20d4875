package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"automarket/internal/app/uow"
	domainfavorites "automarket/internal/domain/favorites"
	domainlistings "automarket/internal/domain/listings"
	domainnotify "automarket/internal/domain/notify"
	domainpurchases "automarket/internal/domain/purchases"
	domainreservation "automarket/internal/domain/reservation"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo      domainlistings.ListingRepository
	ReservationsRepo  domainreservation.Repository
	PurchasesRepo     domainpurchases.Repository
	FavoritesRepo     domainfavorites.Repository
	NotificationsRepo domainnotify.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(f.DB.ReadConcern())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:            f.DB,
		session:       session,
		listings:      f.ListingsRepo,
		reservations:  f.ReservationsRepo,
		purchases:     f.PurchasesRepo,
		favorites:     f.FavoritesRepo,
		notifications: f.NotificationsRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	listings      domainlistings.ListingRepository
	reservations  domainreservation.Repository
	purchases     domainpurchases.Repository
	favorites     domainfavorites.Repository
	notifications domainnotify.Repository
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return u.listings
}

func (u *Unit) Reservations() domainreservation.Repository {
	return u.reservations
}

func (u *Unit) Purchases() domainpurchases.Repository {
	return u.purchases
}

func (u *Unit) Favorites() domainfavorites.Repository {
	return u.favorites
}

func (u *Unit) Notifications() domainnotify.Repository {
	return u.notifications
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
