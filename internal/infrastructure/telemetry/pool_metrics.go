package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/dealerdesk/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// PoolMetricsSource exposes a point-in-time snapshot of the connection pool
type PoolMetricsSource interface {
	Metrics() persistence.PoolMetrics
}

// TxStatsSource exposes transaction manager counters
type TxStatsSource interface {
	Stats() persistence.TxStats
}

// PoolCollectorConfig holds configuration for periodic pool stats export
type PoolCollectorConfig struct {
	Enabled  bool
	Interval time.Duration // default 15s
}

// PoolCollector periodically exports connection pool and transaction counters
// as OpenTelemetry metrics. Counters from the sources are cumulative, so they
// are exported as gauges and the delta work is left to the backend.
type PoolCollector struct {
	pool PoolMetricsSource
	tx   TxStatsSource
	log  *zap.Logger

	interval time.Duration

	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	poolWaitCount      *Gauge
	queriesTotal       *Gauge
	queriesFailed      *Gauge
	queriesSlow        *Gauge
	queryAvgMicros     *Gauge
	txByOutcome        *Gauge
	txActive           *Gauge

	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPoolCollector creates a collector over the given sources. Returns nil
// when disabled or when the meter provider is not exporting.
func NewPoolCollector(mp *MeterProvider, cfg PoolCollectorConfig, pool PoolMetricsSource, tx TxStatsSource, log *zap.Logger) (*PoolCollector, error) {
	if !cfg.Enabled || mp == nil || !mp.IsEnabled() {
		return nil, nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Second
	}

	meter := mp.Meter("db.pool")

	c := &PoolCollector{
		pool:     pool,
		tx:       tx,
		log:      log,
		interval: cfg.Interval,
		stopCh:   make(chan struct{}),
	}

	var err error
	if c.poolConnections, err = NewGauge(meter, "db_pool_connections", "Connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if c.poolConnectionsMax, err = NewGauge(meter, "db_pool_connections_max", "Configured pool ceiling", "{connection}"); err != nil {
		return nil, err
	}
	if c.poolWaitCount, err = NewGauge(meter, "db_pool_wait_total", "Cumulative acquires that had to wait", "{acquire}"); err != nil {
		return nil, err
	}
	if c.queriesTotal, err = NewGauge(meter, "db_queries_total", "Cumulative tracked queries", "{query}"); err != nil {
		return nil, err
	}
	if c.queriesFailed, err = NewGauge(meter, "db_queries_failed_total", "Cumulative failed queries", "{query}"); err != nil {
		return nil, err
	}
	if c.queriesSlow, err = NewGauge(meter, "db_queries_slow_total", "Cumulative queries over the slow threshold", "{query}"); err != nil {
		return nil, err
	}
	if c.queryAvgMicros, err = NewGauge(meter, "db_query_time_avg", "Average tracked query time", "us"); err != nil {
		return nil, err
	}
	if c.txByOutcome, err = NewGauge(meter, "db_transactions_total", "Cumulative transactions by outcome", "{transaction}"); err != nil {
		return nil, err
	}
	if c.txActive, err = NewGauge(meter, "db_transactions_active", "Transactions currently open", "{transaction}"); err != nil {
		return nil, err
	}

	return c, nil
}

// Start begins periodic collection. Call Stop on shutdown.
func (c *PoolCollector) Start(ctx context.Context) {
	if c == nil {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.collect(ctx)

		for {
			select {
			case <-ticker.C:
				c.collect(ctx)
			case <-c.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	c.log.Info("Started pool metrics collection", zap.Duration("interval", c.interval))
}

// Stop terminates the collection goroutine. Safe to call multiple times.
func (c *PoolCollector) Stop() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.wg.Wait()
	})
}

func (c *PoolCollector) collect(ctx context.Context) {
	if c.pool != nil {
		m := c.pool.Metrics()

		c.poolConnectionsMax.Record(ctx, int64(m.MaxOpenConnections))
		c.poolConnections.Record(ctx, int64(m.Idle), AttrDBState.String("idle"))
		c.poolConnections.Record(ctx, int64(m.InUse), AttrDBState.String("in_use"))
		c.poolConnections.Record(ctx, int64(m.OpenConnections), AttrDBState.String("open"))
		c.poolWaitCount.Record(ctx, m.WaitCount)

		c.queriesTotal.Record(ctx, m.TotalQueries)
		c.queriesFailed.Record(ctx, m.FailedQueries)
		c.queriesSlow.Record(ctx, m.SlowQueries)
		c.queryAvgMicros.Record(ctx, m.AvgQueryTime.Microseconds())
	}

	if c.tx != nil {
		s := c.tx.Stats()

		c.txByOutcome.Record(ctx, s.Committed, AttrTxOutcome.String("committed"))
		c.txByOutcome.Record(ctx, s.RolledBack, AttrTxOutcome.String("rolled_back"))
		c.txByOutcome.Record(ctx, s.Retried, AttrTxOutcome.String("retried"))
		c.txByOutcome.Record(ctx, s.DeadlockRetried, AttrTxOutcome.String("deadlock_retried"))
		c.txByOutcome.Record(ctx, s.Exhausted, AttrTxOutcome.String("exhausted"))
		c.txActive.Record(ctx, s.Active)
	}
}
