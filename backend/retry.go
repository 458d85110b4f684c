package backend

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
)

// retryingBackend wraps a Backend with bounded exponential backoff on
// transient (ErrUnavailable) failures. ErrRejected is permanent and
// surfaces immediately, per the error taxonomy's BackendUnavailable vs.
// BackendRejected split.
type retryingBackend struct {
	inner       Backend
	maxAttempts uint64
}

// WithRetry wraps inner so that ErrUnavailable failures are retried with
// bounded exponential backoff, making at most maxAttempts calls in all (3
// when maxAttempts is 0) before surfacing the last error.
func WithRetry(inner Backend, maxAttempts uint64) Backend {
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	return &retryingBackend{inner: inner, maxAttempts: maxAttempts}
}

func (r *retryingBackend) newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	// WithMaxRetries counts retries after the first call.
	return backoff.WithContext(backoff.WithMaxRetries(b, r.maxAttempts-1), ctx)
}

func (r *retryingBackend) Put(ctx context.Context, data []byte) (string, error) {
	var key string
	op := func() error {
		var err error
		key, err = r.inner.Put(ctx, data)
		return classifyRetry(err)
	}
	err := backoff.Retry(op, r.newBackoff(ctx))
	return key, unwrapPermanent(err)
}

func (r *retryingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	op := func() error {
		var err error
		data, err = r.inner.Get(ctx, key)
		return classifyRetry(err)
	}
	err := backoff.Retry(op, r.newBackoff(ctx))
	return data, unwrapPermanent(err)
}

func (r *retryingBackend) List(ctx context.Context) ([]string, error) {
	var keys []string
	op := func() error {
		var err error
		keys, err = r.inner.List(ctx)
		return classifyRetry(err)
	}
	err := backoff.Retry(op, r.newBackoff(ctx))
	return keys, unwrapPermanent(err)
}

func (r *retryingBackend) Delete(ctx context.Context, key string) error {
	op := func() error {
		return classifyRetry(r.inner.Delete(ctx, key))
	}
	return unwrapPermanent(backoff.Retry(op, r.newBackoff(ctx)))
}

// classifyRetry marks ErrUnavailable as retryable; every other error
// (including ErrRejected and ErrNotFound) is wrapped as permanent so
// backoff.Retry stops immediately.
func classifyRetry(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return backoff.Permanent(err)
}

func unwrapPermanent(err error) error {
	var perr *backoff.PermanentError
	if errors.As(err, &perr) {
		return perr.Unwrap()
	}
	return err
}
