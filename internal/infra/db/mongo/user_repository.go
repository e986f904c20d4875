package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainauth "automarket/internal/domain/auth"
	domainuser "automarket/internal/domain/user"
)

// UserRepository persists accounts. Email uniqueness relies on a unique index
// on the email field.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection("users")}
}

type userDocument struct {
	ID           string   `bson:"_id"`
	Email        string   `bson:"email"`
	Name         string   `bson:"name"`
	Phone        string   `bson:"phone,omitempty"`
	City         string   `bson:"city,omitempty"`
	PasswordHash string   `bson:"password_hash"`
	Roles        []string `bson:"roles"`
	Blocked      bool     `bson:"blocked"`
	CreatedAt    int64    `bson:"created_at"`
	UpdatedAt    int64    `bson:"updated_at"`
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toUser(), nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var doc userDocument
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toUser(), nil
}

func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	roles := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, string(role))
	}
	doc := userDocument{
		ID:           string(u.ID),
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		City:         u.City,
		PasswordHash: u.PasswordHash,
		Roles:        roles,
		Blocked:      u.Blocked,
		CreatedAt:    u.CreatedAt.UnixMilli(),
		UpdatedAt:    u.UpdatedAt.UnixMilli(),
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	if mongo.IsDuplicateKeyError(err) {
		return domainuser.ErrEmailAlreadyUsed
	}
	return err
}

func (r *UserRepository) List(ctx context.Context, params domainuser.ListParams) ([]*domainuser.User, int, error) {
	filter := bson.M{}
	if q := strings.TrimSpace(params.Query); q != "" {
		pattern := primitive.Regex{Pattern: regexQuote(q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"email": pattern},
			bson.M{"name": pattern},
		}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().SetSort(bson.M{"created_at": -1})
	if params.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(params.Offset))
	}
	if params.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(params.Limit))
	}
	cursor, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	items := make([]*domainuser.User, 0)
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		items = append(items, doc.toUser())
	}
	return items, int(total), cursor.Err()
}

func (d userDocument) toUser() *domainuser.User {
	roles := make([]domainuser.Role, 0, len(d.Roles))
	for _, role := range d.Roles {
		roles = append(roles, domainuser.Role(role))
	}
	return &domainuser.User{
		ID:           domainuser.ID(d.ID),
		Email:        d.Email,
		Name:         d.Name,
		Phone:        d.Phone,
		City:         d.City,
		PasswordHash: d.PasswordHash,
		Roles:        roles,
		Blocked:      d.Blocked,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
	}
}

func regexQuote(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`, `.`, `\.`, `+`, `\+`, `*`, `\*`, `?`, `\?`,
		`(`, `\(`, `)`, `\)`, `[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`,
		`^`, `\^`, `$`, `\$`, `|`, `\|`,
	)
	return replacer.Replace(s)
}

// SessionStore keeps bearer sessions. Expired rows are filtered on read and
// cleaned up by a TTL index on expires_at.
type SessionStore struct {
	col *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{col: db.Collection("sessions")}
}

type sessionDocument struct {
	Token     string   `bson:"_id"`
	UserID    string   `bson:"user_id"`
	Roles     []string `bson:"roles"`
	CreatedAt int64    `bson:"created_at"`
	ExpiresAt int64    `bson:"expires_at"`
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	roles := make([]string, 0, len(session.Roles))
	for _, role := range session.Roles {
		roles = append(roles, string(role))
	}
	doc := sessionDocument{
		Token:     string(session.Token),
		UserID:    string(session.UserID),
		Roles:     roles,
		CreatedAt: session.CreatedAt.UnixMilli(),
		ExpiresAt: session.ExpiresAt.UnixMilli(),
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": doc.Token}, bson.M{"$set": doc}, opts)
	return err
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	var doc sessionDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": string(token)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainauth.ErrSessionNotFound
		}
		return nil, err
	}
	session := doc.toSession()
	if session.Expired(time.Now()) {
		_, _ = s.col.DeleteOne(ctx, bson.M{"_id": string(token)})
		return nil, domainauth.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": string(token)})
	return err
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID domainuser.ID) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"user_id": string(userID)})
	return err
}

func (d sessionDocument) toSession() *domainauth.Session {
	roles := make([]domainuser.Role, 0, len(d.Roles))
	for _, role := range d.Roles {
		roles = append(roles, domainuser.Role(role))
	}
	return &domainauth.Session{
		Token:     domainauth.Token(d.Token),
		UserID:    domainuser.ID(d.UserID),
		Roles:     roles,
		CreatedAt: timestampToTime(d.CreatedAt),
		ExpiresAt: timestampToTime(d.ExpiresAt),
	}
}

// SellerRequestRepository persists seller applications.
type SellerRequestRepository struct {
	col *mongo.Collection
}

func NewSellerRequestRepository(db *mongo.Database) *SellerRequestRepository {
	return &SellerRequestRepository{col: db.Collection("seller_requests")}
}

type sellerRequestDocument struct {
	ID          string `bson:"_id"`
	UserID      string `bson:"user_id"`
	CompanyName string `bson:"company_name,omitempty"`
	TaxNumber   string `bson:"tax_number,omitempty"`
	Status      string `bson:"status"`
	CreatedAt   int64  `bson:"created_at"`
	DecidedAt   int64  `bson:"decided_at,omitempty"`
	DecidedBy   string `bson:"decided_by,omitempty"`
}

func (r *SellerRequestRepository) ByID(ctx context.Context, id string) (*domainuser.SellerRequest, error) {
	var doc sellerRequestDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrRequestNotFound
		}
		return nil, err
	}
	return doc.toRequest(), nil
}

func (r *SellerRequestRepository) PendingByUser(ctx context.Context, userID domainuser.ID) (*domainuser.SellerRequest, error) {
	filter := bson.M{"user_id": string(userID), "status": string(domainuser.SellerRequestPending)}
	var doc sellerRequestDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrRequestNotFound
		}
		return nil, err
	}
	return doc.toRequest(), nil
}

func (r *SellerRequestRepository) Save(ctx context.Context, req *domainuser.SellerRequest) error {
	if req.Status == domainuser.SellerRequestPending {
		existing, err := r.PendingByUser(ctx, req.UserID)
		if err != nil && !errors.Is(err, domainuser.ErrRequestNotFound) {
			return err
		}
		if existing != nil && existing.ID != req.ID {
			return domainuser.ErrRequestPending
		}
	}

	doc := sellerRequestDocument{
		ID:          req.ID,
		UserID:      string(req.UserID),
		CompanyName: req.CompanyName,
		TaxNumber:   req.TaxNumber,
		Status:      string(req.Status),
		CreatedAt:   req.CreatedAt.UnixMilli(),
		DecidedBy:   string(req.DecidedBy),
	}
	if req.DecidedAt != nil {
		doc.DecidedAt = req.DecidedAt.UnixMilli()
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

func (r *SellerRequestRepository) ListPending(ctx context.Context) ([]*domainuser.SellerRequest, error) {
	filter := bson.M{"status": string(domainuser.SellerRequestPending)}
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]*domainuser.SellerRequest, 0)
	for cursor.Next(ctx) {
		var doc sellerRequestDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.toRequest())
	}
	return items, cursor.Err()
}

func (d sellerRequestDocument) toRequest() *domainuser.SellerRequest {
	req := &domainuser.SellerRequest{
		ID:          d.ID,
		UserID:      domainuser.ID(d.UserID),
		CompanyName: d.CompanyName,
		TaxNumber:   d.TaxNumber,
		Status:      domainuser.SellerRequestStatus(d.Status),
		CreatedAt:   timestampToTime(d.CreatedAt),
		DecidedBy:   domainuser.ID(d.DecidedBy),
	}
	if d.DecidedAt > 0 {
		t := timestampToTime(d.DecidedAt)
		req.DecidedAt = &t
	}
	return req
}

var (
	_ domainuser.Repository              = (*UserRepository)(nil)
	_ domainauth.SessionStore            = (*SessionStore)(nil)
	_ domainuser.SellerRequestRepository = (*SellerRequestRepository)(nil)
)
