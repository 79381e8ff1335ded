package scribe

import (
	"log/slog"
	"time"

	"github.com/meetscribe/scribe-go/proto"
)

// RetryPolicy bounds automatic reconnection after an unexpected
// disconnect: a fixed delay between attempts and a hard cap on
// consecutive attempts. The attempt counter resets on any successful
// reconnect; once the cap is hit the client stays disconnected.
type RetryPolicy struct {
	Delay       time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy retries every 2 seconds, at most 5 times in a row.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Delay:       2 * time.Second,
		MaxAttempts: 5,
	}
}

type clientOptions struct {
	id     string
	logger *slog.Logger
	retry  RetryPolicy
}

type Option func(opts *clientOptions)

func withDefaults() Option {
	return withOptions(
		WithLogger(slog.Default()),
		WithRetryPolicy(DefaultRetryPolicy()),
		WithID(proto.ID()),
	)
}

func withOptions(os ...Option) Option {
	return func(opts *clientOptions) {
		for _, o := range os {
			o(opts)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

func WithID(id string) Option {
	return func(opts *clientOptions) {
		opts.id = id
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(opts *clientOptions) {
		opts.retry = p
	}
}
