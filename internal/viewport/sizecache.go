package viewport

// SizeCache holds measured item sizes for Auto mode, keyed by item path so
// that entries follow items when the list reorders.
type SizeCache struct {
	sizes map[string]int
	total int
}

// NewSizeCache creates an empty cache.
func NewSizeCache() *SizeCache {
	return &SizeCache{sizes: make(map[string]int)}
}

// Set upserts a measurement and reports whether it changed anything.
func (c *SizeCache) Set(key string, size int) bool {
	if size < 0 {
		size = 0
	}
	old, ok := c.sizes[key]
	if ok && old == size {
		return false
	}
	c.total += size - old
	c.sizes[key] = size
	return true
}

// Get returns the measured size for key.
func (c *SizeCache) Get(key string) (int, bool) {
	s, ok := c.sizes[key]
	return s, ok
}

// Len returns the number of measured items.
func (c *SizeCache) Len() int {
	return len(c.sizes)
}

// Average returns the rounded mean of the measured sizes, or fallback when
// nothing has been measured yet.
func (c *SizeCache) Average(fallback int) int {
	n := len(c.sizes)
	if n == 0 {
		return fallback
	}
	return (c.total + n/2) / n
}

// Retain drops every entry for which keep returns false.
func (c *SizeCache) Retain(keep func(key string) bool) {
	for k, s := range c.sizes {
		if !keep(k) {
			c.total -= s
			delete(c.sizes, k)
		}
	}
}

// Reset drops all measurements.
func (c *SizeCache) Reset() {
	clear(c.sizes)
	c.total = 0
}
