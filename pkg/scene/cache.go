package scene

import (
	"path/filepath"
	"sync"
)

// TextureCache is a concurrency-safe cache of decoded textures keyed by
// cleaned file path. Failed loads are cached too.
type TextureCache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	load  func(path string) (*Texture, error)
}

type cacheEntry struct {
	tex *Texture
	err error
}

// NewTextureCache creates an empty cache that loads with LoadTexture.
func NewTextureCache() *TextureCache {
	return &TextureCache{
		items: make(map[string]*cacheEntry),
		load:  LoadTexture,
	}
}

// Load returns the texture at path, decoding it on first use.
func (c *TextureCache) Load(path string) (*Texture, error) {
	path = filepath.Clean(path)

	// Fast path: read lock
	c.mu.RLock()
	if entry, ok := c.items[path]; ok {
		c.mu.RUnlock()
		return entry.tex, entry.err
	}
	c.mu.RUnlock()

	tex, err := c.load(path)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.items[path]; ok {
		return entry.tex, entry.err
	}
	c.items[path] = &cacheEntry{tex: tex, err: err}
	return tex, err
}

// Len returns the number of cached paths.
func (c *TextureCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
