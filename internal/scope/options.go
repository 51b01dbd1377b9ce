package scope

type config struct {
	buckets    int
	loadFactor float64
	policy     Policy
}

func defaultConfig() config {
	return config{
		buckets:    defaultBuckets,
		loadFactor: defaultLoadFactor,
		policy:     PolicyVisible,
	}
}

// Option tweaks a map at construction time.
type Option func(*config)

// MaxBuckets bounds the bucket array, both the initial size and growth.
const MaxBuckets = 1 << 22

// WithBuckets sets the initial bucket count, rounded up to a power of two
// and clamped to MaxBuckets. Non-positive values keep the default.
func WithBuckets(n int) Option {
	return func(c *config) {
		if n <= 0 {
			return
		}
		n = min(n, MaxBuckets)
		size := 1
		for size < n {
			size <<= 1
		}
		c.buckets = size
	}
}

// WithLoadFactor sets the entries-per-bucket ratio that triggers growth.
// Values outside (0, 8] keep the current setting.
func WithLoadFactor(f float64) Option {
	return func(c *config) {
		if f <= 0 || f > 8 {
			return
		}
		c.loadFactor = f
	}
}

// WithPolicy sets the iteration policy.
func WithPolicy(p Policy) Option {
	return func(c *config) { c.policy = p }
}
