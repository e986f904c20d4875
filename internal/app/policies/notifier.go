package policies

import (
	"context"

	domainreservation "automarket/internal/domain/reservation"
)

// NotificationEvent names the lifecycle moments that trigger buyer/seller
// messages.
type NotificationEvent string

const (
	EventReservationRequested NotificationEvent = "reservation_requested"
	EventReservationApproved  NotificationEvent = "reservation_approved"
	EventReservationRefused   NotificationEvent = "reservation_refused"
	EventReservationCancelled NotificationEvent = "reservation_cancelled"
	EventCheckoutCompleted    NotificationEvent = "checkout_completed"
	EventReservationExpired   NotificationEvent = "reservation_expired"
)

// Notifier delivers lifecycle notifications. Delivery and templating are
// infrastructure concerns; handlers only name the event.
type Notifier interface {
	NotifyBuyer(ctx context.Context, event NotificationEvent, r *domainreservation.Reservation) error
	NotifySeller(ctx context.Context, event NotificationEvent, r *domainreservation.Reservation) error
}
