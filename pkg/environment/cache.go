package environment

import (
	"fmt"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/zeebo/xxh3"
)

// Entry is a compiled template and the time it was compiled.
type Entry struct {
	Template   *pongo2.Template
	CompiledAt time.Time
}

// Cache stores compiled templates. Keys already encode the registry
// signature, so a cache may be shared between environments.
type Cache interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry)
}

// MemoryCache is a map-backed Cache safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (c *MemoryCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

func (c *MemoryCache) Set(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
}

// Len returns the number of cached templates.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cacheKey hashes the registry signature with the template identity so a
// changed extension set never reuses another set's compilation.
func cacheKey(signature, kind, identity string) string {
	h := xxh3.New()
	_, _ = h.WriteString(signature)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(kind)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(identity)
	sum := h.Sum128()
	return fmt.Sprintf("%s:%016x%016x", kind, sum.Hi, sum.Lo)
}

// fresh reports whether entry can be reused. Without auto-reload every entry
// is fresh; with it, an entry compiled before the registry's last
// modification is stale.
func (e *Environment) fresh(entry Entry) bool {
	if !e.autoReload {
		return true
	}
	modified, ok := e.registry.LastModified()
	if !ok {
		return true
	}
	return !entry.CompiledAt.Before(modified)
}

// compile returns a cached template for key or compiles it with build.
// Concurrent compiles of the same key share one build.
func (e *Environment) compile(key string, build func() (*pongo2.Template, error)) (*pongo2.Template, error) {
	if entry, ok := e.cache.Get(key); ok && e.fresh(entry) {
		return entry.Template, nil
	}
	result, err, _ := e.compiles.Do(key, func() (any, error) {
		if entry, ok := e.cache.Get(key); ok && e.fresh(entry) {
			return entry.Template, nil
		}
		tmpl, err := build()
		if err != nil {
			return nil, err
		}
		e.cache.Set(key, Entry{Template: tmpl, CompiledAt: e.clock()})
		return tmpl, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*pongo2.Template), nil
}
