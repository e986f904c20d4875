package admin

import (
	"context"
	"time"

	"automarket/internal/app/dto"
	handlersupport "automarket/internal/app/handlers/support"
	"automarket/internal/app/queries"
	"automarket/internal/app/uow"
	domainreservation "automarket/internal/domain/reservation"
)

const salesStatsKey = "admin.stats"

const defaultStatsWindow = 30 * 24 * time.Hour

type SalesStatsQuery struct {
	Since time.Time
}

func (q SalesStatsQuery) Key() string { return salesStatsKey }

// SalesStatsHandler aggregates completed purchases plus the live hold counts.
type SalesStatsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SalesStatsHandler) Handle(ctx context.Context, q SalesStatsQuery) (dto.SalesStats, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SalesStats{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	since := q.Since
	if since.IsZero() {
		since = time.Now().UTC().Add(-defaultStatsWindow)
	}
	since = since.UTC()

	purchases, err := unit.Purchases().ListSince(execCtx, since)
	if err != nil {
		return dto.SalesStats{}, err
	}

	stats := dto.SalesStats{Since: since, SalesCount: len(purchases)}
	for _, p := range purchases {
		stats.RevenueCents += p.AmountCents
	}
	if stats.SalesCount > 0 {
		stats.AverageCents = stats.RevenueCents / int64(stats.SalesCount)
	}

	holds, err := unit.Reservations().CountByStatus(execCtx, []domainreservation.Status{
		domainreservation.StatusReserved,
	})
	if err != nil {
		return dto.SalesStats{}, err
	}
	stats.ActiveHolds = holds

	visits, err := unit.Reservations().CountByStatus(execCtx, []domainreservation.Status{
		domainreservation.StatusScheduled,
		domainreservation.StatusConfirmed,
	})
	if err != nil {
		return dto.SalesStats{}, err
	}
	stats.PendingVisits = visits

	return stats, nil
}

var _ queries.Handler[SalesStatsQuery, dto.SalesStats] = (*SalesStatsHandler)(nil)
