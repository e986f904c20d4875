package reservation

import (
	"time"

	"automarket/internal/domain/listings"
	"automarket/internal/domain/user"
)

type RequestedEvent struct {
	ReservationID ReservationID
	ListingID     listings.ListingID
	BuyerID       user.ID
	Kind          Kind
	SlotAt        time.Time
	At            time.Time
}

func (e RequestedEvent) EventName() string     { return "reservation.requested" }
func (e RequestedEvent) AggregateID() string   { return string(e.ReservationID) }
func (e RequestedEvent) OccurredAt() time.Time { return e.At }

type ApprovedEvent struct {
	ReservationID ReservationID
	ListingID     listings.ListingID
	BuyerID       user.ID
	Kind          Kind
	At            time.Time
}

func (e ApprovedEvent) EventName() string     { return "reservation.approved" }
func (e ApprovedEvent) AggregateID() string   { return string(e.ReservationID) }
func (e ApprovedEvent) OccurredAt() time.Time { return e.At }

type RefusedEvent struct {
	ReservationID ReservationID
	ListingID     listings.ListingID
	BuyerID       user.ID
	At            time.Time
}

func (e RefusedEvent) EventName() string     { return "reservation.refused" }
func (e RefusedEvent) AggregateID() string   { return string(e.ReservationID) }
func (e RefusedEvent) OccurredAt() time.Time { return e.At }

type CancelledEvent struct {
	ReservationID ReservationID
	ListingID     listings.ListingID
	BuyerID       user.ID
	At            time.Time
}

func (e CancelledEvent) EventName() string     { return "reservation.cancelled" }
func (e CancelledEvent) AggregateID() string   { return string(e.ReservationID) }
func (e CancelledEvent) OccurredAt() time.Time { return e.At }

type CheckoutCompletedEvent struct {
	ReservationID ReservationID
	ListingID     listings.ListingID
	BuyerID       user.ID
	At            time.Time
}

func (e CheckoutCompletedEvent) EventName() string     { return "reservation.checkout_completed" }
func (e CheckoutCompletedEvent) AggregateID() string   { return string(e.ReservationID) }
func (e CheckoutCompletedEvent) OccurredAt() time.Time { return e.At }

type VisitCompletedEvent struct {
	ReservationID ReservationID
	ListingID     listings.ListingID
	BuyerID       user.ID
	At            time.Time
}

func (e VisitCompletedEvent) EventName() string     { return "reservation.visit_completed" }
func (e VisitCompletedEvent) AggregateID() string   { return string(e.ReservationID) }
func (e VisitCompletedEvent) OccurredAt() time.Time { return e.At }

type ExpiredEvent struct {
	ReservationID ReservationID
	ListingID     listings.ListingID
	BuyerID       user.ID
	At            time.Time
}

func (e ExpiredEvent) EventName() string     { return "reservation.expired" }
func (e ExpiredEvent) AggregateID() string   { return string(e.ReservationID) }
func (e ExpiredEvent) OccurredAt() time.Time { return e.At }
