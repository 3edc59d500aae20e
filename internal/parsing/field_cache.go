package parsing

// FieldCache interns the values of one column of one table so that repeated
// values share storage. It is owned by a single loader and is not safe for
// concurrent use.
type FieldCache[T comparable] struct {
	values map[T]*T
	hits   int
	misses int
}

// NewFieldCache creates an empty cache.
func NewFieldCache[T comparable]() *FieldCache[T] {
	return &FieldCache[T]{values: make(map[T]*T)}
}

// InternOrNull returns the cached pointer for *v, storing v on first sight.
// A nil value counts as a lookup and a hit and is returned unchanged.
func (c *FieldCache[T]) InternOrNull(v *T) *T {
	if v == nil {
		c.hits++
		return nil
	}
	if cached, ok := c.values[*v]; ok {
		c.hits++
		return cached
	}
	c.misses++
	c.values[*v] = v
	return v
}

// Intern returns the canonical copy of v.
func (c *FieldCache[T]) Intern(v T) T {
	return *c.InternOrNull(&v)
}

// LookupCount is the number of lookups so far.
func (c *FieldCache[T]) LookupCount() int { return c.hits + c.misses }

// CacheHits is the number of lookups served from the cache, including absent values.
func (c *FieldCache[T]) CacheHits() int { return c.hits }

// CacheMisses is the number of lookups that added a new value.
func (c *FieldCache[T]) CacheMisses() int { return c.misses }

// Size is the number of distinct values stored.
func (c *FieldCache[T]) Size() int { return len(c.values) }

// HitRatio is hits over lookups, or 1 before the first lookup.
func (c *FieldCache[T]) HitRatio() float64 {
	if c.LookupCount() == 0 {
		return 1
	}
	return float64(c.hits) / float64(c.LookupCount())
}

// MissRatio is misses over lookups, or 0 before the first lookup.
func (c *FieldCache[T]) MissRatio() float64 {
	if c.LookupCount() == 0 {
		return 0
	}
	return float64(c.misses) / float64(c.LookupCount())
}

// CacheStats is a snapshot of a cache's counters.
type CacheStats struct {
	Lookups int
	Hits    int
	Misses  int
	Size    int
}

// Stats returns the current counters.
func (c *FieldCache[T]) Stats() CacheStats {
	return CacheStats{Lookups: c.LookupCount(), Hits: c.hits, Misses: c.misses, Size: len(c.values)}
}
