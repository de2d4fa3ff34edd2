package exchange

import (
	"maps"
	"time"

	"tukar/pkg/core"
)

type Option func(*Options)

// Options carries the optional arguments shared by exchange operations.
type Options struct {
	// Limit caps the number of records returned, where supported.
	Limit int
	// Since restricts results to records at or after this time.
	Since time.Time
	// Params holds venue-specific parameters forwarded to the request.
	// Required operation parameters always win on key collisions.
	Params core.Params
}

func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func WithSince(since time.Time) Option {
	return func(o *Options) {
		o.Since = since
	}
}

// WithParams merges venue-specific parameters into the options.
// Repeated uses accumulate, later values winning per key.
func WithParams(params core.Params) Option {
	return func(o *Options) {
		if o.Params == nil {
			o.Params = make(core.Params, len(params))
		}
		maps.Copy(o.Params, params)
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
