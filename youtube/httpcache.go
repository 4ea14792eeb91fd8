package youtube

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/gregjones/httpcache"
)

// DefaultResponseCacheEntries bounds the responses kept by NewHTTPClient
const DefaultResponseCacheEntries = 256

// responseCache is an LRU httpcache.Cache. Keys are request URLs, which carry
// the API key, so only their digest is stored.
type responseCache struct {
	mu    sync.Mutex
	max   int
	order *list.List
	items map[string]*list.Element
}

type cachedResponse struct {
	key  string
	resp []byte
}

var _ httpcache.Cache = (*responseCache)(nil)

func newResponseCache(size int) *responseCache {
	return &responseCache{
		max:   max(size, 1),
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

func digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (c *responseCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[digest(key)]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedResponse).resp, true
}

func (c *responseCache) Set(key string, resp []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := digest(key)
	if el, ok := c.items[d]; ok {
		el.Value.(*cachedResponse).resp = resp
		c.order.MoveToFront(el)
		return
	}
	c.items[d] = c.order.PushFront(&cachedResponse{key: d, resp: resp})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cachedResponse).key)
	}
}

func (c *responseCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := digest(key)
	if el, ok := c.items[d]; ok {
		c.order.Remove(el)
		delete(c.items, d)
	}
}

func (c *responseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
