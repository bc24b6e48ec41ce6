package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/elee1766/deskpilot/src/capability"
)

// labelCache is a bounded map from normalized-input hash to capability with
// simple recency eviction: a hit moves the key to the back of the order
// slice, inserts evict the front when full.
type labelCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]capability.Capability
	order   []string
}

func newLabelCache(maxSize int) *labelCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &labelCache{
		maxSize: maxSize,
		entries: make(map[string]capability.Capability, maxSize),
	}
}

// cacheKey hashes normalized input so the cache never retains raw user text.
func cacheKey(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func (c *labelCache) get(key string) (capability.Capability, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	label, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.touch(key)
	return label, true
}

func (c *labelCache) put(key string, label capability.Capability) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = label
		c.touch(key)
		return
	}
	if len(c.entries) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = label
	c.order = append(c.order, key)
}

// touch moves key to the most-recent position. Caller holds the lock.
func (c *labelCache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), key)
			return
		}
	}
}

func (c *labelCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
