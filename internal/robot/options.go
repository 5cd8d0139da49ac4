package robot

import "time"

// Options tunes a family Api.
type Options struct {
	// Intervals overrides monitoring intervals by task or device-type name.
	Intervals map[string]time.Duration
}

// Option mutates Options.
type Option func(*Options)

// WithInterval overrides the polling interval of one monitoring task.
func WithInterval(name string, d time.Duration) Option {
	return func(o *Options) {
		if o.Intervals == nil {
			o.Intervals = make(map[string]time.Duration)
		}
		o.Intervals[name] = d
	}
}

// WithIntervals overrides several polling intervals at once.
func WithIntervals(intervals map[string]time.Duration) Option {
	return func(o *Options) {
		for name, d := range intervals {
			WithInterval(name, d)(o)
		}
	}
}

// NewOptions applies opts over the zero Options.
func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Interval returns the override for name, or def.
func (o Options) Interval(name string, def time.Duration) time.Duration {
	if d, ok := o.Intervals[name]; ok && d > 0 {
		return d
	}
	return def
}
