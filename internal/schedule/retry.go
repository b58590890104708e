package schedule

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"

	"github.com/skawahara/yotei/internal/core"
	"github.com/skawahara/yotei/internal/logging"
)

// RetryPolicy bounds every remote store call: a fixed attempt budget
// with exponential backoff, a per-attempt timeout, and a hard ceiling
// on the whole operation's wall-clock time.
type RetryPolicy struct {
	MaxAttempts      uint64
	InitialInterval  time.Duration
	Multiplier       float64
	AttemptTimeout   time.Duration
	OperationTimeout time.Duration
}

// DefaultRetryPolicy mirrors the service defaults: five attempts,
// 2s initial backoff growing 1.5x, 10s per attempt, 30s overall.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      5,
		InitialInterval:  2 * time.Second,
		Multiplier:       1.5,
		AttemptTimeout:   10 * time.Second,
		OperationTimeout: 30 * time.Second,
	}
}

// do runs fn under the policy. Only transient failures are retried;
// anything else aborts immediately. A budget exhausted on transient
// failures comes back as *TransientError.
func (p RetryPolicy) do(ctx context.Context, logger *slog.Logger, name string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.OperationTimeout)
	defer cancel()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.Multiplier = p.Multiplier
	exp.MaxElapsedTime = 0 // the operation context is the ceiling

	bo := backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxAttempts-1), ctx)

	attempt := 0
	op := func() error {
		attempt++
		attemptCtx, attemptCancel := context.WithTimeout(ctx, p.AttemptTimeout)
		defer attemptCancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("retrying store call",
			logging.Operation(name),
			logging.Attempt(attempt),
			logging.Duration(wait),
			logging.Err(err))
	}

	err := backoff.RetryNotify(op, bo, notify)
	if err == nil {
		return nil
	}
	if isTransient(err) {
		return &TransientError{Err: err}
	}
	return err
}

// isTransient classifies store errors. The store mutations are not
// idempotent, so anything we cannot positively classify as transient is
// treated as permanent.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, core.ErrUnavailable) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429 || gerr.Code >= 500
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}
