package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"automarket/internal/app/commands"
	reservationapp "automarket/internal/app/handlers/reservation"
)

// Sweeper periodically expires reservations whose hold deadline passed.
type Sweeper struct {
	Commands  commands.Bus
	Interval  time.Duration
	BatchSize int
	Logger    *slog.Logger
}

var ErrSweeperNotConfigured = errors.New("worker: sweeper missing command bus")

func (s *Sweeper) Run(ctx context.Context) error {
	if s.Commands == nil {
		return ErrSweeperNotConfigured
	}
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	cmd := reservationapp.ExpireStaleCommand{Limit: s.BatchSize}
	result, err := commands.Dispatch[reservationapp.ExpireStaleCommand, *reservationapp.ExpireStaleResult](ctx, s.Commands, cmd)
	if err != nil {
		if s.Logger != nil && !errors.Is(err, context.Canceled) {
			s.Logger.Error("expiry sweep failed", "error", err)
		}
		return
	}
	if s.Logger != nil && result != nil && result.Expired > 0 {
		s.Logger.Info("expiry sweep finished", "expired", result.Expired, "skipped", result.Skipped)
	}
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return time.Minute
	}
	return s.Interval
}
