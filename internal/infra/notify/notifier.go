package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"automarket/internal/app/policies"
	"automarket/internal/app/uow"
	domainnotify "automarket/internal/domain/notify"
	domainreservation "automarket/internal/domain/reservation"
	domainuser "automarket/internal/domain/user"
)

// Notifier writes in-app notification rows through the active unit of work and
// logs the outgoing message in place of a real mail gateway.
type Notifier struct {
	Logger *slog.Logger
}

func (n *Notifier) NotifyBuyer(ctx context.Context, event policies.NotificationEvent, r *domainreservation.Reservation) error {
	return n.deliver(ctx, r.Buyer, event, r)
}

func (n *Notifier) NotifySeller(ctx context.Context, event policies.NotificationEvent, r *domainreservation.Reservation) error {
	return n.deliver(ctx, domainuser.ID(r.Seller), event, r)
}

func (n *Notifier) deliver(ctx context.Context, recipient domainuser.ID, event policies.NotificationEvent, r *domainreservation.Reservation) error {
	title, message := composeMessage(event, r)

	unit, ok := uow.FromContext(ctx)
	if ok {
		notification, err := domainnotify.New(domainnotify.CreateParams{
			ID:      domainnotify.NotificationID(uuid.NewString()),
			UserID:  recipient,
			Title:   title,
			Message: message,
			Now:     time.Now(),
		})
		if err != nil {
			return err
		}
		if err := unit.Notifications().Save(ctx, notification); err != nil {
			return err
		}
	}

	if n.Logger != nil {
		n.Logger.Info("notification sent",
			"event", event,
			"recipient", recipient,
			"reservation_id", r.ID,
			"listing_id", r.ListingID,
			"title", title,
		)
	}
	return nil
}

func composeMessage(event policies.NotificationEvent, r *domainreservation.Reservation) (string, string) {
	switch event {
	case policies.EventReservationRequested:
		if r.Kind == domainreservation.KindVisit {
			return "New visit request", fmt.Sprintf("A buyer asked to visit your listing on %s.", r.SlotAt.Format("2006-01-02 15:04"))
		}
		return "New purchase request", "A buyer wants to reserve your listing."
	case policies.EventReservationApproved:
		if r.Kind == domainreservation.KindVisit {
			return "Visit confirmed", fmt.Sprintf("Your visit is confirmed for %s.", r.SlotAt.Format("2006-01-02 15:04"))
		}
		return "Reservation approved", fmt.Sprintf("The listing is held for you until %s.", r.ExpiresAt.Format("2006-01-02 15:04"))
	case policies.EventReservationRefused:
		return "Request refused", "The seller refused your request."
	case policies.EventReservationCancelled:
		return "Reservation cancelled", "The buyer cancelled the reservation."
	case policies.EventCheckoutCompleted:
		return "Sale completed", "Checkout finished and the vehicle is marked as sold."
	case policies.EventReservationExpired:
		return "Reservation expired", "The reservation lapsed before a decision or payment."
	default:
		return string(event), "Reservation update."
	}
}

var _ policies.Notifier = (*Notifier)(nil)
