package lookup

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Adithya-Monish-Kumar-K/wordfreq/internal/frequency"
)

type cached struct {
	count int
	ok    bool
}

// CachedReader answers repeated lookups from an LRU instead of the table.
// The list backing scans linearly on every miss, so interactive sessions
// that repeat words benefit most. The table must no longer change.
type CachedReader struct {
	frequency.Reader
	cache *lru.Cache[string, cached]
}

// NewCachedReader wraps r. A size <= 0 returns r unchanged.
func NewCachedReader(r frequency.Reader, size int) frequency.Reader {
	if size <= 0 {
		return r
	}
	cache, _ := lru.New[string, cached](size)
	return &CachedReader{Reader: r, cache: cache}
}

func (c *CachedReader) Lookup(word string) (int, bool) {
	if v, ok := c.cache.Get(word); ok {
		return v.count, v.ok
	}
	n, ok := c.Reader.Lookup(word)
	c.cache.Add(word, cached{count: n, ok: ok})
	return n, ok
}
