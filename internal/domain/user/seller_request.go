package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrRequestNotFound = errors.New("user: seller request not found")
	ErrRequestDecided  = errors.New("user: seller request already decided")
	ErrRequestPending  = errors.New("user: seller request already pending")
)

type SellerRequestStatus string

const (
	SellerRequestPending  SellerRequestStatus = "PENDING"
	SellerRequestApproved SellerRequestStatus = "APPROVED"
	SellerRequestRefused  SellerRequestStatus = "REFUSED"
)

// SellerRequest is a user's application to sell, moderated by an admin.
type SellerRequest struct {
	ID          string
	UserID      ID
	CompanyName string
	TaxNumber   string
	Status      SellerRequestStatus
	CreatedAt   time.Time
	DecidedAt   *time.Time
	DecidedBy   ID
}

type SellerRequestRepository interface {
	ByID(ctx context.Context, id string) (*SellerRequest, error)
	PendingByUser(ctx context.Context, userID ID) (*SellerRequest, error)
	Save(ctx context.Context, req *SellerRequest) error
	ListPending(ctx context.Context) ([]*SellerRequest, error)
}

func NewSellerRequest(id string, userID ID, companyName, taxNumber string, now time.Time) (*SellerRequest, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(userID)) == "" {
		return nil, ErrIDRequired
	}
	if now.IsZero() {
		now = time.Now()
	}
	return &SellerRequest{
		ID:          id,
		UserID:      userID,
		CompanyName: strings.TrimSpace(companyName),
		TaxNumber:   strings.TrimSpace(taxNumber),
		Status:      SellerRequestPending,
		CreatedAt:   now.UTC(),
	}, nil
}

func (r *SellerRequest) Approve(admin ID, now time.Time) error {
	return r.decide(SellerRequestApproved, admin, now)
}

func (r *SellerRequest) Refuse(admin ID, now time.Time) error {
	return r.decide(SellerRequestRefused, admin, now)
}

func (r *SellerRequest) decide(status SellerRequestStatus, admin ID, now time.Time) error {
	if r.Status != SellerRequestPending {
		return ErrRequestDecided
	}
	if now.IsZero() {
		now = time.Now()
	}
	t := now.UTC()
	r.Status = status
	r.DecidedAt = &t
	r.DecidedBy = admin
	return nil
}

// SellerProfile is the seller-facing projection of a user account.
type SellerProfile struct {
	UserID      ID
	Name        string
	Email       string
	Phone       string
	City        string
	CompanyName string
	TaxNumber   string
	Since       time.Time
}

// SellerProfileFromUser builds the seller profile by naming every carried
// field explicitly; no reflective copying.
func SellerProfileFromUser(u *User, req *SellerRequest, now time.Time) SellerProfile {
	profile := SellerProfile{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Phone:  u.Phone,
		City:   u.City,
		Since:  now.UTC(),
	}
	if req != nil {
		profile.CompanyName = req.CompanyName
		profile.TaxNumber = req.TaxNumber
	}
	return profile
}
