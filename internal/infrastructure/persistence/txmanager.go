package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TxOptions controls a managed transaction.
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
	// MaxRetries is the total number of attempts, including the first.
	MaxRetries int
	// Timeout bounds the whole operation including retries and backoff.
	// Zero means no deadline beyond the caller's context.
	Timeout time.Duration
	Backoff BackoffPolicy
}

// DefaultTxOptions returns read-committed options with retry enabled.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		Isolation:  sql.LevelReadCommitted,
		MaxRetries: 3,
		Timeout:    30 * time.Second,
		Backoff:    DefaultBackoffPolicy(),
	}
}

// SerializableTxOptions returns options for operations that need full
// isolation, such as deal creation and sequence allocation.
func SerializableTxOptions() TxOptions {
	opts := DefaultTxOptions()
	opts.Isolation = sql.LevelSerializable
	return opts
}

// Tx is a handle to an open managed transaction. It exposes the gorm session
// bound to the transaction plus savepoint control for partial rollback.
type Tx struct {
	db *gorm.DB
}

// DB returns the gorm session bound to this transaction. Repositories built
// over it participate in the transaction.
func (t *Tx) DB() *gorm.DB {
	return t.db
}

// Savepoint establishes a named savepoint inside the transaction.
func (t *Tx) Savepoint(name string) error {
	return t.db.SavePoint(name).Error
}

// RollbackToSavepoint rolls back to a previously established savepoint. Work
// done before the savepoint is preserved.
func (t *Tx) RollbackToSavepoint(name string) error {
	return t.db.RollbackTo(name).Error
}

// TxStats is a snapshot of transaction manager activity. DeadlockRetried
// counts the subset of Retried caused by deadlocks (40P01) rather than
// serialization failures.
type TxStats struct {
	Committed       int64
	RolledBack      int64
	Retried         int64
	DeadlockRetried int64
	Exhausted       int64
	Active          int64
}

// TxManager runs closures inside database transactions with configurable
// isolation, automatic retry on serialization failures and deadlocks, and
// exponential backoff between attempts.
//
// The closure must be safe to re-invoke: it can run multiple times when the
// transaction conflicts, so side effects outside the database must be
// deferred until after commit.
type TxManager struct {
	database *Database
	defaults TxOptions
	log      *zap.Logger

	committed       atomic.Int64
	rolledBack      atomic.Int64
	retried         atomic.Int64
	deadlockRetried atomic.Int64
	exhausted       atomic.Int64
	active          atomic.Int64
}

// NewTxManager creates a transaction manager over the given pool.
func NewTxManager(database *Database, defaults TxOptions, log *zap.Logger) *TxManager {
	if defaults.MaxRetries < 1 {
		defaults.MaxRetries = 1
	}
	if defaults.Backoff == (BackoffPolicy{}) {
		defaults.Backoff = DefaultBackoffPolicy()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TxManager{
		database: database,
		defaults: defaults,
		log:      log,
	}
}

// Run executes fn inside a transaction with the manager's default options.
func (m *TxManager) Run(ctx context.Context, fn func(tx *Tx) error) error {
	return m.RunWithOptions(ctx, m.defaults, fn)
}

// RunSerializable executes fn inside a serializable transaction with the
// manager's default retry settings.
func (m *TxManager) RunSerializable(ctx context.Context, fn func(tx *Tx) error) error {
	opts := m.defaults
	opts.Isolation = sql.LevelSerializable
	return m.RunWithOptions(ctx, opts, fn)
}

// RunWithOptions executes fn inside a transaction with explicit options.
//
// On serialization failure (40001) or deadlock (40P01) the transaction is
// rolled back and fn is re-invoked on a fresh transaction, up to
// opts.MaxRetries total attempts with backoff between them. Any other error
// rolls back and returns immediately. When all attempts are consumed the
// final conflict is wrapped in *RetryExhaustedError.
func (m *TxManager) RunWithOptions(ctx context.Context, opts TxOptions, fn func(tx *Tx) error) error {
	if m.database.IsShuttingDown() {
		return ErrShuttingDown
	}

	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Backoff == (BackoffPolicy{}) {
		opts.Backoff = DefaultBackoffPolicy()
	}

	// One deadline covers every attempt, so retries cannot extend the
	// caller's overall budget.
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	policy := opts.Backoff
	policy.MaxAttempts = opts.MaxRetries

	var (
		attempt int
		lastErr error
	)
	err := ExecuteWithRetry(ctx, policy, IsRetryableConflict, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			m.retried.Add(1)
			if IsDeadlock(lastErr) {
				m.deadlockRetried.Add(1)
			}
			logger.L(ctx).Warn("retrying transaction after conflict",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", opts.MaxRetries),
				zap.Error(lastErr),
			)
		}
		lastErr = m.runOnce(ctx, opts, fn)
		return lastErr
	})

	var exhausted *RetryExhaustedError
	if errors.As(err, &exhausted) {
		m.exhausted.Add(1)
		logger.L(ctx).Error("transaction retries exhausted",
			zap.Int("attempts", exhausted.Attempts),
			zap.Error(exhausted.Err),
		)
	}
	return err
}

// runOnce executes fn within a single transaction attempt.
func (m *TxManager) runOnce(ctx context.Context, opts TxOptions, fn func(tx *Tx) error) (err error) {
	gormTx := m.database.DB().WithContext(ctx).Begin(&sql.TxOptions{
		Isolation: opts.Isolation,
		ReadOnly:  opts.ReadOnly,
	})
	if gormTx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", gormTx.Error)
	}

	m.active.Add(1)
	defer m.active.Add(-1)

	defer func() {
		if p := recover(); p != nil {
			gormTx.Rollback()
			m.rolledBack.Add(1)
			panic(p)
		}
	}()

	if err := fn(&Tx{db: gormTx}); err != nil {
		gormTx.Rollback()
		m.rolledBack.Add(1)
		return err
	}

	if err := gormTx.Commit().Error; err != nil {
		// Serialization conflicts can surface at commit time under
		// SERIALIZABLE; they are as retryable as mid-transaction ones.
		m.rolledBack.Add(1)
		return err
	}

	m.committed.Add(1)
	return nil
}

// Stats returns a snapshot of the manager's counters.
func (m *TxManager) Stats() TxStats {
	return TxStats{
		Committed:       m.committed.Load(),
		RolledBack:      m.rolledBack.Load(),
		Retried:         m.retried.Load(),
		DeadlockRetried: m.deadlockRetried.Load(),
		Exhausted:       m.exhausted.Load(),
		Active:          m.active.Load(),
	}
}
