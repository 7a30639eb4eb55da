package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dealerdesk/backend/internal/infrastructure/config"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	// queryHistorySize is how many recent queries the pool keeps for the
	// monitoring surface.
	queryHistorySize = 100
	// querySQLMaxLen caps recorded SQL so the history cannot hold unbounded
	// statement text.
	querySQLMaxLen = 200
	// drainPollInterval is how often Shutdown re-checks for in-use
	// connections while draining.
	drainPollInterval = 50 * time.Millisecond
)

// QueryRecord is one entry in the pool's recent-query history.
type QueryRecord struct {
	SQL      string
	Duration time.Duration
	Failed   bool
	Slow     bool
	At       time.Time
}

// PoolMetrics is a point-in-time snapshot of pool activity. RecentQueries is
// ordered oldest first.
type PoolMetrics struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration

	TotalQueries  int64
	FailedQueries int64
	SlowQueries   int64
	TotalAcquired int64
	TotalReleased int64
	AvgQueryTime  time.Duration
	Uptime        time.Duration

	RecentQueries []QueryRecord
}

// Database owns the connection pool and tracks every query that flows through
// it. All repository access goes through Query or a transaction started by the
// TxManager so the history and counters stay complete.
type Database struct {
	db       *gorm.DB
	cfg      config.DatabaseConfig
	log      *zap.Logger
	observer PoolObserver

	shuttingDown atomic.Bool
	startedAt    time.Time

	totalQueries   atomic.Int64
	failedQueries  atomic.Int64
	slowQueries    atomic.Int64
	totalAcquired  atomic.Int64
	totalReleased  atomic.Int64
	totalQueryTime atomic.Int64

	historyMu sync.Mutex
	history   []QueryRecord
	historyAt int
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger used for slow-query and lifecycle events.
func WithLogger(log *zap.Logger) Option {
	return func(d *Database) {
		d.log = log
	}
}

// WithObserver sets the pool observer. Defaults to NopObserver.
func WithObserver(obs PoolObserver) Option {
	return func(d *Database) {
		d.observer = obs
	}
}

// NewDatabase opens a connection pool with the given configuration.
func NewDatabase(cfg config.DatabaseConfig, opts ...Option) (*Database, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newDatabase(gormDB, cfg, opts...)
}

// NewDatabaseWithGorm wraps an already-opened gorm.DB. Used by tests and by
// callers that configure the gorm session themselves (tracing plugins, custom
// loggers).
func NewDatabaseWithGorm(gormDB *gorm.DB, cfg config.DatabaseConfig, opts ...Option) (*Database, error) {
	return newDatabase(gormDB, cfg, opts...)
}

func newDatabase(gormDB *gorm.DB, cfg config.DatabaseConfig, opts ...Option) (*Database, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MinIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	d := &Database{
		db:        gormDB,
		cfg:       cfg,
		log:       zap.NewNop(),
		observer:  NopObserver{},
		startedAt: time.Now(),
		history:   make([]QueryRecord, 0, queryHistorySize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// DB returns the underlying gorm handle. Queries issued directly against it
// bypass tracking; prefer Query.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Query runs fn against a tracked session. It rejects new work during
// shutdown, applies the configured per-query timeout, and records the
// statement, duration and outcome in the pool history.
func (d *Database) Query(ctx context.Context, fn func(db *gorm.DB) error) error {
	if d.shuttingDown.Load() {
		return ErrShuttingDown
	}

	if d.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	session := d.db.WithContext(ctx)
	err := fn(session)
	d.track(ctx, session, time.Since(start), err)
	return err
}

// track records a finished query in the history and counters. The SQL text
// comes from gorm's statement builder; it is truncated before storage.
func (d *Database) track(ctx context.Context, session *gorm.DB, elapsed time.Duration, err error) {
	sqlText := ""
	if session != nil && session.Statement != nil {
		sqlText = session.Statement.SQL.String()
	}
	if len(sqlText) > querySQLMaxLen {
		sqlText = sqlText[:querySQLMaxLen]
	}

	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := d.cfg.SlowQueryThreshold > 0 && elapsed >= d.cfg.SlowQueryThreshold

	d.totalQueries.Add(1)
	d.totalQueryTime.Add(int64(elapsed))
	if failed {
		d.failedQueries.Add(1)
		d.observer.OnQueryError(ctx, sqlText, err)
	}
	if slow {
		d.slowQueries.Add(1)
		d.observer.OnSlowQuery(ctx, sqlText, elapsed)
		logger.L(ctx).Warn("slow query",
			zap.String("sql", sqlText),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", d.cfg.SlowQueryThreshold),
		)
	}

	rec := QueryRecord{
		SQL:      sqlText,
		Duration: elapsed,
		Failed:   failed,
		Slow:     slow,
		At:       time.Now(),
	}

	d.historyMu.Lock()
	if len(d.history) < queryHistorySize {
		d.history = append(d.history, rec)
	} else {
		d.history[d.historyAt] = rec
		d.historyAt = (d.historyAt + 1) % queryHistorySize
	}
	d.historyMu.Unlock()
}

// Conn is a dedicated connection checked out from the pool. Callers must
// Release it; Release is idempotent.
type Conn struct {
	conn     *sql.Conn
	db       *Database
	released atomic.Bool
}

// Raw exposes the underlying sql.Conn.
func (c *Conn) Raw() *sql.Conn {
	return c.conn
}

// Release returns the connection to the pool.
func (c *Conn) Release() error {
	if !c.released.CompareAndSwap(false, true) {
		return nil
	}
	c.db.totalReleased.Add(1)
	c.db.observer.OnRelease(context.Background())
	return c.conn.Close()
}

// Acquire checks out a dedicated connection, waiting at most the configured
// connect timeout. Returns ErrPoolTimeout when the pool is saturated and
// ErrShuttingDown once shutdown has begun.
func (d *Database) Acquire(ctx context.Context) (*Conn, error) {
	if d.shuttingDown.Load() {
		return nil, ErrShuttingDown
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if d.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.ConnectTimeout)
		defer cancel()
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrPoolTimeout
		}
		return nil, err
	}

	d.totalAcquired.Add(1)
	d.observer.OnAcquire(ctx)
	return &Conn{conn: conn, db: d}, nil
}

// HealthCheck verifies the pool can serve a round trip. It runs through Query
// so the check shows up in the history like any other statement.
func (d *Database) HealthCheck(ctx context.Context) error {
	return d.Query(ctx, func(db *gorm.DB) error {
		var one int
		return db.Raw("SELECT 1").Scan(&one).Error
	})
}

// IsShuttingDown reports whether Shutdown has been requested.
func (d *Database) IsShuttingDown() bool {
	return d.shuttingDown.Load()
}

// Metrics returns a snapshot of pool statistics and recent query history.
func (d *Database) Metrics() PoolMetrics {
	m := PoolMetrics{
		TotalQueries:  d.totalQueries.Load(),
		FailedQueries: d.failedQueries.Load(),
		SlowQueries:   d.slowQueries.Load(),
		TotalAcquired: d.totalAcquired.Load(),
		TotalReleased: d.totalReleased.Load(),
		Uptime:        time.Since(d.startedAt),
	}
	if m.TotalQueries > 0 {
		m.AvgQueryTime = time.Duration(d.totalQueryTime.Load() / m.TotalQueries)
	}

	if sqlDB, err := d.db.DB(); err == nil {
		stats := sqlDB.Stats()
		m.MaxOpenConnections = stats.MaxOpenConnections
		m.OpenConnections = stats.OpenConnections
		m.InUse = stats.InUse
		m.Idle = stats.Idle
		m.WaitCount = stats.WaitCount
		m.WaitDuration = stats.WaitDuration
	}

	m.RecentQueries = d.QueryHistory()

	return m
}

// QueryHistory returns a copy of the recent-query ring, oldest first.
func (d *Database) QueryHistory() []QueryRecord {
	d.historyMu.Lock()
	defer d.historyMu.Unlock()

	out := make([]QueryRecord, 0, len(d.history))
	// Oldest first: the slot at historyAt is the oldest once the ring wraps
	if len(d.history) == queryHistorySize {
		out = append(out, d.history[d.historyAt:]...)
		out = append(out, d.history[:d.historyAt]...)
	} else {
		out = append(out, d.history...)
	}
	return out
}

// SlowQueries returns the entries of the recent-query ring that crossed the
// slow-query threshold, oldest first.
func (d *Database) SlowQueries() []QueryRecord {
	history := d.QueryHistory()
	out := make([]QueryRecord, 0, len(history))
	for _, rec := range history {
		if rec.Slow {
			out = append(out, rec)
		}
	}
	return out
}

// Shutdown stops accepting new work, waits for in-flight connections to
// drain, then closes the pool. In-flight work is given until ctx is done or
// the configured grace period elapses, whichever comes first; the pool is
// closed regardless.
func (d *Database) Shutdown(ctx context.Context) error {
	if !d.shuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	d.observer.OnShutdown(ctx)
	d.log.Info("database shutdown requested, draining connections")

	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	grace := d.cfg.ShutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	deadline := time.NewTimer(grace)
	defer deadline.Stop()
	tick := time.NewTicker(drainPollInterval)
	defer tick.Stop()

	for sqlDB.Stats().InUse > 0 {
		select {
		case <-ctx.Done():
			d.log.Warn("shutdown context cancelled with connections still in use",
				zap.Int("in_use", sqlDB.Stats().InUse))
			return sqlDB.Close()
		case <-deadline.C:
			d.log.Warn("shutdown grace period elapsed with connections still in use",
				zap.Int("in_use", sqlDB.Stats().InUse))
			return sqlDB.Close()
		case <-tick.C:
		}
	}

	d.log.Info("database pool drained")
	return sqlDB.Close()
}

// Close closes the pool immediately without draining.
func (d *Database) Close() error {
	d.shuttingDown.Store(true)
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
