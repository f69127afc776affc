package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"veilgate/internal/shared/logger"
)

const defaultMaxAttempts = 5

// MySQL error numbers classified as transient contention.
const (
	mysqlErrDeadlock        = 1213
	mysqlErrLockWaitTimeout = 1205
)

// pgDeadlockDetected is the PostgreSQL SQLSTATE for a deadlock victim.
const pgDeadlockDetected = "40P01"

// Executor runs statements against the database, recovering from
// transient contention (deadlocks, lock-wait timeouts, a locked SQLite
// file) with backoff. Every attempt runs in its own transaction on a
// freshly acquired connection, so no lock survives a failed attempt.
type Executor interface {
	// Execute runs the statements in order. Each statement commits
	// independently; a non-transient error or an exhausted retry budget
	// stops execution and propagates.
	Execute(ctx context.Context, stmts ...Statement) error
}

type retryExecutor struct {
	db          *gorm.DB
	maxAttempts int
	sleep       func(time.Duration)
	logger      logger.Interface
}

// NewExecutor creates an Executor with the default retry budget.
func NewExecutor(db *gorm.DB, log logger.Interface) Executor {
	return &retryExecutor{
		db:          db,
		maxAttempts: defaultMaxAttempts,
		sleep:       time.Sleep,
		logger:      log,
	}
}

func (e *retryExecutor) Execute(ctx context.Context, stmts ...Statement) error {
	for _, stmt := range stmts {
		run := func() error {
			return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return runStatement(tx, stmt)
			})
		}
		if err := e.withRetry(ctx, stmt.SQL, run); err != nil {
			return err
		}
	}
	return nil
}

// withRetry drives one statement through the attempt loop. Transient
// contention backs off and retries; anything else propagates on the
// first attempt.
func (e *retryExecutor) withRetry(ctx context.Context, sql string, run func() error) error {
	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		err := run()
		if err == nil {
			return nil
		}
		lastErr = err

		kind := classifyContention(err)
		if kind == contentionNone {
			return err
		}
		if attempt == e.maxAttempts-1 {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := backoffDelay(kind, attempt)
		e.logger.Warnw("database contention, retrying statement",
			"attempt", attempt+1,
			"delay", delay,
			"statement", sql,
			"error", err,
		)
		e.sleep(delay)
	}
	return fmt.Errorf("statement failed after %d attempts: %w", e.maxAttempts, lastErr)
}

func runStatement(tx *gorm.DB, stmt Statement) error {
	if len(stmt.Rows) == 0 {
		return tx.Exec(stmt.SQL).Error
	}
	for _, row := range stmt.Rows {
		if err := tx.Exec(stmt.SQL, row).Error; err != nil {
			return err
		}
	}
	return nil
}

type contentionKind int

const (
	contentionNone contentionKind = iota
	contentionDeadlock
	contentionSQLiteLocked
)

func classifyContention(err error) contentionKind {
	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlErrDeadlock || myErr.Number == mysqlErrLockWaitTimeout {
			return contentionDeadlock
		}
		return contentionNone
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgDeadlockDetected {
			return contentionDeadlock
		}
		return contentionNone
	}

	if strings.Contains(err.Error(), "database is locked") {
		return contentionSQLiteLocked
	}

	return contentionNone
}

// backoffDelay picks the wait before the next attempt. Deadlocks back
// off exponentially from 50ms with up to 50% random jitter; a locked
// SQLite file backs off linearly in 100ms steps.
func backoffDelay(kind contentionKind, attempt int) time.Duration {
	switch kind {
	case contentionDeadlock:
		base := 50 * time.Millisecond << attempt
		jitter := time.Duration(rand.Int64N(int64(base)/2 + 1))
		return base + jitter
	case contentionSQLiteLocked:
		return 100 * time.Millisecond * time.Duration(attempt+1)
	default:
		return 0
	}
}
