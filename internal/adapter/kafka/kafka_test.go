package kafka

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/critical-events-service/internal/config"
	"github.com/couchcryptid/critical-events-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("req-1"),
		Value:     []byte(`{"days_list":[]}`),
		Topic:     "critical-events-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("dashboard")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("req-1"), raw.Key)
	assert.JSONEq(t, `{"days_list":[]}`, string(raw.Value))
	assert.Equal(t, "critical-events-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "dashboard", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestMapMessageToRawEvent_NoHeaders(t *testing.T) {
	raw := mapMessageToRawEvent(kafkago.Message{Value: []byte("{}")})

	assert.NotNil(t, raw.Headers)
	assert.Empty(t, raw.Headers)
	assert.Empty(t, raw.Key)
}

func TestSerializeToMessage(t *testing.T) {
	processedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	out, err := domain.SerializeDetectionResult(domain.DetectionResult{
		RequestID:      "req-1",
		CriticalEvents: []string{"E1", "E2"},
		DayCounts:      map[string]int{"E1": 2, "E2": 3},
		DaysProcessed:  3,
		ProcessedAt:    processedAt,
	})
	require.NoError(t, err)

	msg := serializeToMessage(out)

	assert.Equal(t, []byte("req-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"critical_events":["E1","E2"]`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "critical_event_count", msg.Headers[0].Key)
	assert.Equal(t, []byte("2"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(processedAt.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestLoadBatch_EmptyIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:0"}, KafkaSinkTopic: "critical-events-results"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close() //nolint:errcheck // nothing was written

	require.NoError(t, w.LoadBatch(t.Context(), nil))
}
