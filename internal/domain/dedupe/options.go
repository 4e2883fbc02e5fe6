package dedupe

// defaultMaxSize bounds the dedupe cache when no option overrides it.
const defaultMaxSize = 50000

// Option applies a configuration option to the inMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of ids kept in memory. A value of
// zero or less disables eviction entirely.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
