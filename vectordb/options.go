package vectordb

// Filter is a predicate over entry metadata. Entries for which it returns
// false are excluded before ranking.
type Filter func(meta map[string]interface{}) bool

// Option applies configuration to search Options.
type SearchOption func(*Options)

// Options collects optional parameters for search operations.
type Options struct {
	Filter Filter
}

// WithFilter restricts search to entries whose metadata satisfies f.
func WithFilter(f Filter) SearchOption {
	return func(o *Options) { o.Filter = f }
}

// NewOptions folds opts into an Options value.
func NewOptions(opts ...SearchOption) Options {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
