package architect

import "container/list"

// meanCacheKey identifies a memoized per-range chroma/MFCC mean (spec.md
// §5's "Caching" paragraph).
type meanCacheKey struct {
	start, end int
	kind       string // "chroma" or "mfcc"
}

// meanCache is a bounded, oldest-first-eviction LRU for per-range mean
// vectors computed during merging. No LRU package appears anywhere in the
// pack's dependency surface (the closest is go.etcd.io/bbolt, a disk KV
// store, the wrong shape for a process-local memoization cache), so this
// is a small stdlib container/list + map implementation, same texture as
// the teacher's other hand-rolled in-memory indices.
type meanCache struct {
	capacity int
	order    *list.List
	entries  map[meanCacheKey]*list.Element
}

type meanCacheEntry struct {
	key   meanCacheKey
	value [13]float64 // wide enough for either a chroma (12) or MFCC (13) mean
}

func newMeanCache(capacity int) *meanCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &meanCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[meanCacheKey]*list.Element),
	}
}

func (c *meanCache) get(key meanCacheKey) ([13]float64, bool) {
	el, ok := c.entries[key]
	if !ok {
		return [13]float64{}, false
	}
	c.order.MoveToBack(el)
	return el.Value.(*meanCacheEntry).value, true
}

func (c *meanCache) put(key meanCacheKey, value [13]float64) {
	if el, ok := c.entries[key]; ok {
		el.Value.(*meanCacheEntry).value = value
		c.order.MoveToBack(el)
		return
	}
	el := c.order.PushBack(&meanCacheEntry{key: key, value: value})
	c.entries[key] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*meanCacheEntry).key)
	}
}

func (c *meanCache) cachedMeanChroma(r reducedSignal, start, end int) [12]float64 {
	key := meanCacheKey{start, end, "chroma"}
	if v, ok := c.get(key); ok {
		var out [12]float64
		copy(out[:], v[:12])
		return out
	}
	mean := meanChroma(r, start, end)
	var wide [13]float64
	copy(wide[:], mean[:])
	c.put(key, wide)
	return mean
}

func (c *meanCache) cachedMeanMFCC(r reducedSignal, start, end int) [13]float64 {
	key := meanCacheKey{start, end, "mfcc"}
	if v, ok := c.get(key); ok {
		return v
	}
	mean := meanMFCC(r, start, end)
	c.put(key, mean)
	return mean
}
