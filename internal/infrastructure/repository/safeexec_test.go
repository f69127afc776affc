package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilgate/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestExecutor(delays *[]time.Duration) *retryExecutor {
	return &retryExecutor{
		maxAttempts: defaultMaxAttempts,
		sleep: func(d time.Duration) {
			*delays = append(*delays, d)
		},
		logger: testLogger(),
	}
}

func TestWithRetryRecoversFromDeadlock(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	attempts := 0
	err := e.withRetry(context.Background(), "UPDATE users", func() error {
		attempts++
		if attempts < 3 {
			return &mysqldrv.MySQLError{Number: 1213, Message: "Deadlock found"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	require.Len(t, delays, 2)

	// 50ms doubling per attempt, plus up to 50% jitter.
	assert.GreaterOrEqual(t, delays[0], 50*time.Millisecond)
	assert.LessOrEqual(t, delays[0], 75*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 100*time.Millisecond)
	assert.LessOrEqual(t, delays[1], 150*time.Millisecond)
}

func TestWithRetryRecoversFromPostgresDeadlock(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	attempts := 0
	err := e.withRetry(context.Background(), "UPDATE admins", func() error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Len(t, delays, 1)
}

func TestWithRetrySQLiteLockedBacksOffLinearly(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	attempts := 0
	err := e.withRetry(context.Background(), "UPDATE nodes", func() error {
		attempts++
		if attempts < 4 {
			return errors.New("database is locked")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}, delays)
}

func TestWithRetryPropagatesNonTransientImmediately(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	boom := &mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry"}
	attempts := 0
	err := e.withRetry(context.Background(), "INSERT", func() error {
		attempts++
		return boom
	})

	assert.Equal(t, 1, attempts)
	assert.Empty(t, delays)
	assert.ErrorIs(t, err, boom)
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	attempts := 0
	err := e.withRetry(context.Background(), "UPDATE", func() error {
		attempts++
		return &mysqldrv.MySQLError{Number: 1213, Message: "Deadlock found"}
	})

	assert.Equal(t, defaultMaxAttempts, attempts)
	assert.Len(t, delays, defaultMaxAttempts-1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 5 attempts")

	var myErr *mysqldrv.MySQLError
	assert.ErrorAs(t, err, &myErr)
}

func TestWithRetryStopsOnCancelledContext(t *testing.T) {
	var delays []time.Duration
	e := newTestExecutor(&delays)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := e.withRetry(ctx, "UPDATE", func() error {
		attempts++
		cancel()
		return errors.New("database is locked")
	})

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyContention(t *testing.T) {
	assert.Equal(t, contentionDeadlock, classifyContention(&mysqldrv.MySQLError{Number: 1213}))
	assert.Equal(t, contentionDeadlock, classifyContention(&mysqldrv.MySQLError{Number: 1205}))
	assert.Equal(t, contentionNone, classifyContention(&mysqldrv.MySQLError{Number: 1062}))
	assert.Equal(t, contentionDeadlock, classifyContention(&pgconn.PgError{Code: "40P01"}))
	assert.Equal(t, contentionNone, classifyContention(&pgconn.PgError{Code: "23505"}))
	assert.Equal(t, contentionSQLiteLocked, classifyContention(errors.New("database is locked")))
	assert.Equal(t, contentionNone, classifyContention(errors.New("no such table")))
}
