package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "automarket", cfg.MongoDB)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 48*time.Hour, cfg.PurchaseHoldTTL)
	assert.Equal(t, 24*time.Hour, cfg.VisitHoldTTL)
	assert.Equal(t, 2*time.Hour, cfg.CancelLeadTime)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 100, cfg.SweepBatchSize)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, cfg.S3Endpoint, cfg.S3PublicEndpoint)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PURCHASE_HOLD_TTL", "12h")
	t.Setenv("SWEEP_BATCH_SIZE", "25")
	t.Setenv("RETRY_BACKOFF", "2s, 10s")
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 12*time.Hour, cfg.PurchaseHoldTTL)
	assert.Equal(t, 25, cfg.SweepBatchSize)
	assert.Equal(t, []time.Duration{2 * time.Second, 10 * time.Second}, cfg.RetryBackoff)
	assert.True(t, cfg.S3UseSSL)
}

func TestLoadRequiresMongo(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestLoadRequiresKafka(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("VISIT_HOLD_TTL", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadBackoff(t *testing.T) {
	setRequired(t)
	t.Setenv("RETRY_BACKOFF", "1s,never")
	_, err := Load()
	assert.Error(t, err)
}
