package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func noJitter(maxAttempts int) *ExponentialBackoff {
	return NewExponentialBackoff(maxAttempts, WithInitialDelay(time.Millisecond), WithJitter(0))
}

// flakyWrite fails with err for the first failures calls.
type flakyWrite struct {
	calls    int
	failures int
	err      error
}

func (f *flakyWrite) run(context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func TestExponentialBackoff_NextDelay(t *testing.T) {
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(time.Second),
		WithMultiplier(3),
		WithJitter(0),
	)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 300 * time.Millisecond},
		{2, 900 * time.Millisecond},
		{3, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, b.NextDelay(tt.attempt))
		})
	}
	assert.Equal(t, 5, b.MaxAttempts())
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	low := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.2), WithJitterFunc(func() float64 { return 0 }))
	high := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.2), WithJitterFunc(func() float64 { return 0.75 }))

	assert.InDelta(t, float64(800*time.Millisecond), float64(low.NextDelay(0)), float64(time.Microsecond))
	assert.InDelta(t, float64(1100*time.Millisecond), float64(high.NextDelay(0)), float64(time.Microsecond))
}

func TestPostgresClassifier(t *testing.T) {
	c := NewPostgresClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"wrapped pg error", fmt.Errorf("upsert: %w", &pgconn.PgError{Code: "08000"}), true},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"message only", errors.New("read tcp: connection reset by peer"), true},
		{"plain", errors.New("permission denied for table facility_payloads"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTransient(tt.err))
		})
	}
}

func TestSQLiteClassifier(t *testing.T) {
	c := NewSQLiteClassifier()
	assert.True(t, c.IsTransient(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, c.IsTransient(errors.New("no such table: facility_payloads")))
	assert.False(t, c.IsTransient(nil))
}

func TestExecutor_RetriesTransientFailures(t *testing.T) {
	op := &flakyWrite{failures: 2, err: &pgconn.PgError{Code: "08006"}}
	var seen []int

	err := NewExecutor(NewPostgresClassifier(), noJitter(3)).
		WithOnRetry(func(attempt int, _ error, _ time.Duration) { seen = append(seen, attempt) }).
		Execute(context.Background(), op.run)

	assert.NoError(t, err)
	assert.Equal(t, 3, op.calls)
	assert.Equal(t, []int{0, 1}, seen)
}

func TestExecutor_StopsOnFatalError(t *testing.T) {
	op := &flakyWrite{failures: 5, err: &pgconn.PgError{Code: "23505"}}

	err := NewExecutor(NewPostgresClassifier(), noJitter(3)).Execute(context.Background(), op.run)

	assert.Error(t, err)
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_ExhaustsAttempts(t *testing.T) {
	transient := &pgconn.PgError{Code: "53300"}
	op := &flakyWrite{failures: 10, err: transient}

	err := NewExecutor(NewPostgresClassifier(), noJitter(2)).Execute(context.Background(), op.run)

	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, op.calls, "first try plus two retries")
}

func TestExecutor_ZeroAttemptsMeansSingleTry(t *testing.T) {
	op := &flakyWrite{failures: 1, err: errors.New("database is locked")}

	err := NewExecutor(NewSQLiteClassifier(), noJitter(0)).Execute(context.Background(), op.run)

	assert.Error(t, err)
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	op := &flakyWrite{failures: 10, err: &pgconn.PgError{Code: "08006"}}

	exec := NewExecutor(NewPostgresClassifier(), NewExponentialBackoff(-1, WithInitialDelay(time.Hour), WithJitter(0))).
		WithOnRetry(func(int, error, time.Duration) { cancel() })

	err := exec.Execute(ctx, op.run)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, op.calls)
}

func TestNewExecutor_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, noJitter(1)) })
	assert.Panics(t, func() { NewExecutor(NewPostgresClassifier(), nil) })
}
