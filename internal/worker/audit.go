package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"
)

// AuditLogger consumes the published reservation event stream and writes a
// structured audit trail. It is intentionally lossy on malformed payloads:
// the outbox already guarantees delivery, so a bad record is logged raw.
type AuditLogger struct {
	Logger *slog.Logger
}

type auditEnvelope struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Source string         `json:"source"`
	Time   string         `json:"time"`
	Data   map[string]any `json:"data"`
}

func (a *AuditLogger) Handle(_ context.Context, msg *sarama.ConsumerMessage) error {
	if a.Logger == nil {
		return nil
	}
	var evt auditEnvelope
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		a.Logger.Warn("audit: undecodable event",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	a.Logger.Info("audit event",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"source", evt.Source,
		"occurred_at", evt.Time,
		"topic", msg.Topic,
		"key", string(msg.Key),
		"data", evt.Data,
	)
	return nil
}
