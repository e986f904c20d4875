package reservation

import (
	"context"
	"log/slog"
	"time"

	"automarket/internal/app/commands"
	"automarket/internal/app/outbox"
	"automarket/internal/app/policies"
	"automarket/internal/app/uow"
)

const (
	expireStaleKey     = "reservation.expire_stale"
	defaultSweepBatch  = 100
	maxSweepBatchLimit = 500
)

type ExpireStaleCommand struct {
	Limit int
}

func (c ExpireStaleCommand) Key() string { return expireStaleKey }

type ExpireStaleResult struct {
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
}

// ExpireStaleHandler sweeps reservations whose deadline passed without a
// decision or checkout. Failures on individual rows are logged and skipped so
// one bad record never stalls the sweep.
type ExpireStaleHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Notifier   policies.Notifier
	Logger     *slog.Logger
}

func (h *ExpireStaleHandler) Handle(ctx context.Context, cmd ExpireStaleCommand) (*ExpireStaleResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = defaultSweepBatch
	}
	if limit > maxSweepBatchLimit {
		limit = maxSweepBatchLimit
	}

	now := time.Now().UTC()
	stale, err := unit.Reservations().ListExpired(ctx, now, limit)
	if err != nil {
		return nil, err
	}

	result := &ExpireStaleResult{}
	for _, r := range stale {
		if !r.ExpiryDue(now) {
			result.Skipped++
			continue
		}
		heldListing := r.Status.HoldsListing()
		if err := r.Expire(now); err != nil {
			h.logSkip(r.ID, err)
			result.Skipped++
			continue
		}
		if err := unit.Reservations().Save(ctx, r); err != nil {
			h.logSkip(r.ID, err)
			result.Skipped++
			continue
		}
		if heldListing {
			if err := releaseListingHold(ctx, unit, r, now); err != nil {
				h.logSkip(r.ID, err)
				result.Skipped++
				continue
			}
		}
		if err := flushEvents(ctx, h.Outbox, h.Encoder, r); err != nil {
			h.logSkip(r.ID, err)
			result.Skipped++
			continue
		}
		if h.Notifier != nil {
			if err := h.Notifier.NotifyBuyer(ctx, policies.EventReservationExpired, r); err != nil {
				h.logSkip(r.ID, err)
			}
		}
		result.Expired++
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil && (result.Expired > 0 || result.Skipped > 0) {
		h.Logger.Info("stale reservations swept", "expired", result.Expired, "skipped", result.Skipped)
	}
	return result, nil
}

func (h *ExpireStaleHandler) logSkip(id any, err error) {
	if h.Logger != nil {
		h.Logger.Warn("sweep skipped reservation", "reservation_id", id, "error", err)
	}
}

var _ commands.Handler[ExpireStaleCommand, *ExpireStaleResult] = (*ExpireStaleHandler)(nil)
