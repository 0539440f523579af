package dedupe

type options struct {
	expectedSize int
}

// Option applies a configuration option to the deduper.
type Option func(*options)

// WithExpectedSize pre-sizes the id set. Non-positive values are ignored.
func WithExpectedSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.expectedSize = n
		}
	}
}
