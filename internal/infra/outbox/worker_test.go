package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicFor(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "reservation.events.v1", w.topicFor("reservation.requested"))
	assert.Equal(t, "listing.events.v1", w.topicFor("listing.created"))
	assert.Equal(t, "heartbeat.events.v1", w.topicFor("heartbeat"))

	prefixed := &Worker{TopicPrefix: "staging."}
	assert.Equal(t, "staging.reservation.events.v1", prefixed.topicFor("reservation.approved"))
}

func TestFormatPayload(t *testing.T) {
	w := &Worker{}
	occurred := time.Date(2030, 5, 20, 8, 0, 0, 0, time.UTC)
	doc := &EventDocument{
		Name:       "reservation.requested",
		Aggregate:  "res-1",
		Payload:    []byte(`{"reservation_id":"res-1"}`),
		OccurredAt: occurred,
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}

	payload, headers, err := w.formatPayload(doc)
	require.NoError(t, err)
	assert.Equal(t, "application/cloudevents+json", headers["content-type"])
	assert.Equal(t, "00-abc-def-01", headers["traceparent"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "reservation.requested.v1", evt["type"])
	assert.Equal(t, "app://automarket", evt["source"])
	assert.Equal(t, "00-abc-def-01", evt["traceparent"])
	data, ok := evt["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "res-1", data["reservation_id"])
}

func TestFormatPayloadRejectsGarbage(t *testing.T) {
	w := &Worker{}
	_, _, err := w.formatPayload(&EventDocument{Payload: []byte("not json")})
	assert.Error(t, err)
}

func TestNextRetryFollowsBackoff(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}}

	first := w.nextRetry(0)
	assert.WithinDuration(t, time.Now().Add(time.Second), first, 200*time.Millisecond)

	exhausted := w.nextRetry(10)
	assert.WithinDuration(t, time.Now().Add(30*time.Second), exhausted, 200*time.Millisecond)
}
