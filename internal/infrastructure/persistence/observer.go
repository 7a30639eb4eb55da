package persistence

import (
	"context"
	"time"

	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// PoolObserver receives pool lifecycle events. Implementations must be cheap
// and non-blocking; they run on the query path.
type PoolObserver interface {
	OnAcquire(ctx context.Context)
	OnRelease(ctx context.Context)
	OnQueryError(ctx context.Context, sql string, err error)
	OnSlowQuery(ctx context.Context, sql string, elapsed time.Duration)
	OnShutdown(ctx context.Context)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) OnAcquire(context.Context)                          {}
func (NopObserver) OnRelease(context.Context)                          {}
func (NopObserver) OnQueryError(context.Context, string, error)        {}
func (NopObserver) OnSlowQuery(context.Context, string, time.Duration) {}
func (NopObserver) OnShutdown(context.Context)                         {}

// LoggingObserver logs pool events through the context logger so entries pick
// up trace and tenant correlation.
type LoggingObserver struct {
	Log *zap.Logger
}

func (o LoggingObserver) OnAcquire(ctx context.Context) {
	logger.WithLogger(ctx, o.Log).Debug("connection acquired")
}

func (o LoggingObserver) OnRelease(ctx context.Context) {
	logger.WithLogger(ctx, o.Log).Debug("connection released")
}

func (o LoggingObserver) OnQueryError(ctx context.Context, sql string, err error) {
	logger.WithLogger(ctx, o.Log).Error("query failed",
		zap.String("sql", sql),
		zap.Error(err),
	)
}

func (o LoggingObserver) OnSlowQuery(ctx context.Context, sql string, elapsed time.Duration) {
	logger.WithLogger(ctx, o.Log).Warn("slow query observed",
		zap.String("sql", sql),
		zap.Duration("elapsed", elapsed),
	)
}

func (o LoggingObserver) OnShutdown(ctx context.Context) {
	logger.WithLogger(ctx, o.Log).Info("pool shutdown requested")
}
