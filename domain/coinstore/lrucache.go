package coinstore

import (
	"sync"

	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/chainstated/domain/utxo"
)

// lruCache is a bounded cache of committed coins. Despite the name it
// evicts a random entry when full, which is good enough for outpoints.
type lruCache struct {
	mtx      sync.Mutex
	cache    map[wire.OutPoint]*utxo.Entry
	capacity int
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		cache:    make(map[wire.OutPoint]*utxo.Entry, capacity+1),
		capacity: capacity,
	}
}

func (c *lruCache) add(key *wire.OutPoint, value *utxo.Entry) {
	if c.capacity <= 0 {
		return
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.cache[*key] = value

	if len(c.cache) > c.capacity {
		c.evictRandom()
	}
}

func (c *lruCache) get(key *wire.OutPoint) (*utxo.Entry, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	value, ok := c.cache[*key]
	return value, ok
}

func (c *lruCache) remove(key *wire.OutPoint) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	delete(c.cache, *key)
}

func (c *lruCache) clear() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	for key := range c.cache {
		delete(c.cache, key)
	}
}

func (c *lruCache) len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.cache)
}

func (c *lruCache) evictRandom() {
	for key := range c.cache {
		delete(c.cache, key)
		return
	}
}
