package dto

import (
	"time"

	domainuser "automarket/internal/domain/user"
)

// SalesStats aggregates completed purchases for the admin dashboard.
type SalesStats struct {
	Since         time.Time `json:"since"`
	SalesCount    int       `json:"sales_count"`
	RevenueCents  int64     `json:"revenue_cents"`
	AverageCents  int64     `json:"average_cents"`
	ActiveHolds   int       `json:"active_holds"`
	PendingVisits int       `json:"pending_visits"`
}

type SellerRequestView struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Status      string     `json:"status"`
	CompanyName string     `json:"company_name,omitempty"`
	TaxNumber   string     `json:"tax_number,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

type SellerRequestList struct {
	Items []SellerRequestView `json:"items"`
	Total int                 `json:"total"`
}

func MapSellerRequest(req *domainuser.SellerRequest) SellerRequestView {
	if req == nil {
		return SellerRequestView{}
	}
	return SellerRequestView{
		ID:          req.ID,
		UserID:      string(req.UserID),
		Status:      string(req.Status),
		CompanyName: req.CompanyName,
		TaxNumber:   req.TaxNumber,
		CreatedAt:   req.CreatedAt,
		DecidedAt:   req.DecidedAt,
	}
}

func MapSellerRequests(items []*domainuser.SellerRequest) SellerRequestList {
	views := make([]SellerRequestView, 0, len(items))
	for _, req := range items {
		views = append(views, MapSellerRequest(req))
	}
	return SellerRequestList{Items: views, Total: len(views)}
}
