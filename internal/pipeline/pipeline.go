// Package pipeline runs stream-mode detection: it consumes detection
// requests in batches, runs the detector on each and publishes the results.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/critical-events-service/internal/domain"
	"github.com/couchcryptid/critical-events-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw requests from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns one raw request into a publishable result.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes results to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline is the extract-detect-publish loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	batchSize   int

	running atomic.Bool
	healthy atomic.Bool
	handled atomic.Int64
}

// New creates a Pipeline. A nil clock means the real clock.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int, clock clockwork.Clock) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clock,
		batchSize:   batchSize,
	}
}

// CheckReadiness fails before Run starts, after it stops, and while the
// last extract or load attempt is failing.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	switch {
	case !p.running.Load():
		return errors.New("detection pipeline is not running")
	case !p.healthy.Load():
		return errors.New("detection pipeline is retrying after a broker error")
	}
	return nil
}

// Ready reports whether CheckReadiness would succeed.
func (p *Pipeline) Ready() bool {
	return p.CheckReadiness(context.Background()) == nil
}

// Handled is the number of requests consumed so far, skipped ones included.
func (p *Pipeline) Handled() int64 {
	return p.handled.Load()
}

// Run loops until ctx is cancelled. It never returns a non-nil error for
// broker failures; those are retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("detection pipeline started", "batch_size", p.batchSize)
	p.running.Store(true)
	p.healthy.Store(true)
	p.metrics.PipelineRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.PipelineRunning.Set(0)
	}()

	backoff := initialBackoff
	for ctx.Err() == nil {
		if err := p.runBatch(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.healthy.Store(false)
			p.logger.Error("detection batch failed", "error", err, "retry_in", backoff)
			if !p.sleep(ctx, backoff) {
				break
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		p.healthy.Store(true)
		backoff = initialBackoff
	}

	p.logger.Info("detection pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// runBatch handles one batch. Results are published together; offsets of
// published requests are committed only after the publish succeeds, while
// rejected requests are committed right away so they are not redelivered.
func (p *Pipeline) runBatch(ctx context.Context) error {
	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	start := p.clock.Now()
	p.handled.Add(int64(len(batch)))
	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))

	results := make([]domain.OutputEvent, 0, len(batch))
	pending := make([]domain.RawEvent, 0, len(batch))
	for _, raw := range batch {
		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.metrics.TransformErrors.Inc()
			p.logger.Warn("rejected detection request",
				"error", err,
				"key", string(raw.Key),
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.commit(ctx, raw)
			continue
		}
		results = append(results, out)
		pending = append(pending, raw)
	}

	if len(results) > 0 {
		if err := p.loader.LoadBatch(ctx, results); err != nil {
			return err
		}
		p.metrics.MessagesProduced.Add(float64(len(results)))
		for _, raw := range pending {
			p.commit(ctx, raw)
		}
	}

	p.metrics.BatchProcessingDuration.Observe(p.clock.Since(start).Seconds())
	return nil
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
