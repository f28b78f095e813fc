// Package filelru implements the bounded in-memory cache for hot file
// bodies: keyed by (namespace, relative path), weighted by byte length,
// evicted LRU against a total-weight budget. Built on
// hashicorp/golang-lru's Cache for the LRU mechanics, with an explicit
// byte-weight accounting wrapper since that library's Cache is
// entry-count bounded, not byte-weight bounded.
package filelru

import (
	"fmt"
	"mime"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/atomic"
)

// Entry is the cached payload for one file.
type Entry struct {
	Bytes       []byte
	Digest      string
	Size        int64
	ContentType string
}

func (e Entry) weight() int64 { return int64(len(e.Bytes)) }

type key struct {
	namespace string
	relPath   string
}

// Cache is a byte-weight-bounded LRU. golang-lru's Cache itself evicts by
// entry count, so Cache additionally tracks total weight and evicts the
// actual LRU tail whenever an insert would exceed the byte budget,
// keyed per-entry instead of per-volume.
type Cache struct {
	maxBytes   int64
	usedBytes  atomic.Int64
	mu         sync.Mutex
	inner      *lru.Cache
	shutdownWG sync.WaitGroup
}

// New builds a Cache with the given total byte budget. capacityHint
// bounds the number of distinct keys golang-lru will track internally;
// it is a performance hint, not a correctness bound -- the byte budget
// is what's enforced.
func New(maxBytes int64, capacityHint int) (*Cache, error) {
	if capacityHint <= 0 {
		capacityHint = 4096
	}
	c := &Cache{maxBytes: maxBytes}
	inner, err := lru.NewWithEvict(capacityHint, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("filelru: %w", err)
	}
	c.inner = inner
	return c, nil
}

func (c *Cache) onEvict(_, value interface{}) {
	e := value.(Entry)
	c.usedBytes.Sub(e.weight())
}

// Get returns the cached entry for (namespace, relPath), if present.
// Reads do not take c.mu: golang-lru.Cache is internally synchronized,
// so concurrent Get calls proceed without contending on our own lock.
func (c *Cache) Get(namespace, relPath string) (Entry, bool) {
	v, ok := c.inner.Get(key{namespace, relPath})
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Put inserts or replaces the entry for (namespace, relPath), evicting
// LRU tail entries until the total weight is back under the budget. A
// single insert may transiently push usedBytes above maxBytes before
// eviction catches up.
func (c *Cache) Put(namespace, relPath string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{namespace, relPath}
	if old, ok := c.inner.Peek(k); ok {
		c.usedBytes.Sub(old.(Entry).weight())
	}
	c.inner.Add(k, e)
	c.usedBytes.Add(e.weight())

	for c.usedBytes.Load() > c.maxBytes && c.inner.Len() > 0 {
		c.inner.RemoveOldest()
	}
}

// UsedBytes reports the current total cached weight.
func (c *Cache) UsedBytes() int64 { return c.usedBytes.Load() }

// Shutdown drains any background bookkeeping. The LRU itself has none
// (eviction happens synchronously in Put), but Shutdown is kept as an
// explicit lifecycle call so cachemgr.Shutdown has one symmetrical path
// across every owned subsystem.
func (c *Cache) Shutdown() {
	c.shutdownWG.Wait()
}

// DetectContentType derives a MIME type from a file's extension, falling
// back to application/octet-stream. Good enough for the static game
// asset/jar/library bodies this server distributes; no magic-byte
// sniffing library is warranted for a known, closed set of extensions.
func DetectContentType(relPath string) string {
	ext := filepath.Ext(relPath)
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
