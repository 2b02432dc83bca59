package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/critical-events-service/internal/domain"
	"github.com/couchcryptid/critical-events-service/internal/observability"
)

// DetectionTransformer runs the detector on a raw request and serializes
// the result.
type DetectionTransformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *DetectionTransformer {
	return &DetectionTransformer{logger: logger, metrics: metrics}
}

func (t *DetectionTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	result, err := domain.ProcessRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	t.metrics.ObserveDetection("stream", result.DaysProcessed, result.ObservationCount, len(result.CriticalEvents))
	t.logger.Debug("detection complete",
		"request_id", result.RequestID,
		"days", result.DaysProcessed,
		"critical_events", len(result.CriticalEvents),
	)
	return domain.SerializeDetectionResult(result)
}
