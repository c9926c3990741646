package recommend

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/five82/dram/internal/catalog"
	"github.com/five82/dram/internal/metrics"
)

// Instrumented wraps a Recommender with logging and request metrics.
type Instrumented struct {
	inner   Recommender
	metrics *metrics.Metrics
	logger  *zap.Logger
}

var _ Recommender = (*Instrumented)(nil)

// NewInstrumented wraps inner. Either m or logger may be nil.
func NewInstrumented(inner Recommender, m *metrics.Metrics, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{inner: inner, metrics: m, logger: logger}
}

// Recommend delegates to the inner recommender and records the outcome.
func (r *Instrumented) Recommend(ctx context.Context, req Request) ([]catalog.Record, error) {
	start := time.Now()
	records, err := r.inner.Recommend(ctx, req)
	duration := time.Since(start)

	outcome := Outcome(err)
	if r.metrics != nil {
		r.metrics.RequestsTotal.WithLabelValues(outcome).Inc()
		r.metrics.RequestDuration.Observe(duration.Seconds())
	}

	fields := []zap.Field{
		zap.Int("index", req.Index),
		zap.Stringer("max_price", req.MaxPrice),
		zap.Duration("duration", duration),
		zap.String("outcome", outcome),
	}
	switch outcome {
	case metrics.OutcomeOK:
		r.logger.Debug("recommendation request completed", append(fields, zap.Int("results", len(records)))...)
	case metrics.OutcomeCanceled:
		r.logger.Debug("recommendation request canceled", fields...)
	default:
		r.logger.Warn("recommendation request failed", append(fields, zap.Error(err))...)
	}
	return records, err
}

// Outcome maps a Recommend error to a metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeCanceled
	case errors.Is(err, ErrMalformedResponse):
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeFailed
	}
}
