package dto

import (
	"time"

	domainreservation "automarket/internal/domain/reservation"
)

type ReservationView struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Status    string     `json:"status"`
	ListingID string     `json:"listing_id"`
	BuyerID   string     `json:"buyer_id"`
	SellerID  string     `json:"seller_id"`
	SlotAt    *time.Time `json:"slot_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ReservationList struct {
	Items []ReservationView `json:"items"`
	Total int               `json:"total"`
}

// SlotBoard exposes a visit day with taken and free hours.
type SlotBoard struct {
	ListingID string      `json:"listing_id"`
	Day       string      `json:"day"`
	Taken     []time.Time `json:"taken"`
	Free      []time.Time `json:"free"`
}

func MapReservation(r *domainreservation.Reservation) ReservationView {
	if r == nil {
		return ReservationView{}
	}
	view := ReservationView{
		ID:        string(r.ID),
		Kind:      string(r.Kind),
		Status:    string(r.Status),
		ListingID: string(r.ListingID),
		BuyerID:   string(r.Buyer),
		SellerID:  string(r.Seller),
		ExpiresAt: r.ExpiresAt,
		DecidedAt: r.DecidedAt,
		PaidAt:    r.PaidAt,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if !r.SlotAt.IsZero() {
		slot := r.SlotAt
		view.SlotAt = &slot
	}
	return view
}

func MapReservations(items []*domainreservation.Reservation) ReservationList {
	views := make([]ReservationView, 0, len(items))
	for _, r := range items {
		views = append(views, MapReservation(r))
	}
	return ReservationList{Items: views, Total: len(views)}
}
