package library

import (
	"log/slog"
	"time"
)

// Option configures a Store or a Session.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	newID      IDFunc
	now        func() time.Time
	loanPeriod time.Duration
}

func newOptions(opts []Option) options {
	o := options{
		logger:     slog.New(slog.DiscardHandler),
		newID:      NewID,
		now:        time.Now,
		loanPeriod: DefaultLoanPeriod,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for mutation and warning records.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithIDFunc replaces the identifier generator.
func WithIDFunc(f IDFunc) Option {
	return func(o *options) {
		if f != nil {
			o.newID = f
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLoanPeriod sets the due-date offset for rentals created without one.
func WithLoanPeriod(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.loanPeriod = d
		}
	}
}
