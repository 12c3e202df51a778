package mempool

import "log/slog"

// Option configures a Pool.
type Option func(*options)

type options struct {
	provider Provider
	logger   *slog.Logger
	pageSize int
}

func defaultOptions() options {
	return options{
		provider: DefaultProvider,
		logger:   slog.New(slog.DiscardHandler),
		pageSize: DefaultPageSize,
	}
}

// WithProvider sets the memory provider backing slabs and large payloads.
// A nil provider keeps DefaultProvider.
func WithProvider(p Provider) Option {
	return func(o *options) {
		if p != nil {
			o.provider = p
		}
	}
}

// WithLogger sets the logger used for growth and exhaustion events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPageSize overrides the page size that caps the small-allocation
// threshold at pageSize-1. Values <= 0 are ignored.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}
