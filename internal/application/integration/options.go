package integration

import "time"

// Option configures the sync services
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, used for sync timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
