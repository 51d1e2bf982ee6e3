package summarizer

import (
	"context"
	"errors"
	"log/slog"
	"pdfdigest/internal/domain"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	DefaultRetryAttempts uint = 3

	retryBaseDelay = time.Second
	retryMaxDelay  = 20 * time.Second
)

// Retrying retries failed remote calls with exponential backoff.
// Invalid input is never retried.
type Retrying struct {
	next     Summarizer
	attempts uint
	delay    time.Duration
	log      *slog.Logger
}

func NewRetrying(next Summarizer, attempts uint, log *slog.Logger) *Retrying {
	if attempts == 0 {
		attempts = 1
	}

	return &Retrying{
		next:     next,
		attempts: attempts,
		delay:    retryBaseDelay,
		log:      log,
	}
}

func (r *Retrying) Summarize(ctx context.Context, input Input) (string, error) {
	return retry.DoWithData(
		func() (string, error) {
			return r.next.Summarize(ctx, input)
		},
		r.options(ctx, "Summarize", len(input.Text))...,
	)
}

func (r *Retrying) Describe(ctx context.Context, input ImageInput) (string, error) {
	return retry.DoWithData(
		func() (string, error) {
			return r.next.Describe(ctx, input)
		},
		r.options(ctx, "Describe", len(input.Data))...,
	)
}

func (r *Retrying) options(ctx context.Context, operation string, inputLen int) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.MaxDelay(retryMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, domain.ErrInvalidInput)
		}),
		retry.OnRetry(func(n uint, err error) {
			r.log.WarnContext(ctx, "Remote call failed, retrying",
				"error", err,
				"operation", operation,
				"attempt", n+1,
				"maxAttempts", r.attempts,
				"inputLen", inputLen)
		}),
	}
}
