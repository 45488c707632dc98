package api

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy controls the exponential backoff applied to transient backend
// failures. The delay doubles per attempt starting at BaseDelay.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: time.Second}
}

// WithRetry runs op, retrying only failures considered transient: transport
// errors and backend 408/429/5xx responses. Validation-class 4xx errors
// surface immediately since retrying cannot change the outcome.
func WithRetry(ctx context.Context, policy RetryPolicy, op func(context.Context) error) error {
	backoff := retry.WithMaxRetries(policy.MaxRetries, retry.NewExponential(policy.BaseDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil {
			return nil
		}

		var apiErr *Error
		if errors.As(err, &apiErr) {
			if apiErr.IsTransient() {
				return retry.RetryableError(err)
			}
			return err
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Transport-level failure, worth another attempt.
		return retry.RetryableError(err)
	})
}
