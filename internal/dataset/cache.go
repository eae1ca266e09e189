package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru"
)

// Cache keeps recently loaded datasets keyed by file identity and load
// options. A file that changed on disk gets a new key and is reloaded.
type Cache struct {
	lru *lru.Cache
}

// NewCache creates a cache holding up to size datasets. onEvict, if set, is
// called with each dataset dropped from the cache.
func NewCache(size int, onEvict func(*Dataset)) (*Cache, error) {
	if size <= 0 {
		size = 1
	}
	var (
		l   *lru.Cache
		err error
	)
	if onEvict != nil {
		l, err = lru.NewWithEvict(size, func(_ interface{}, v interface{}) {
			if ds, ok := v.(*Dataset); ok {
				onEvict(ds)
			}
		})
	} else {
		l, err = lru.New(size)
	}
	if err != nil {
		return nil, fmt.Errorf("create dataset cache: %w", err)
	}
	return &Cache{lru: l}, nil
}

// Load returns the cached dataset for path when the file is unchanged, or
// loads and caches it.
func (c *Cache) Load(path string, opt Options) (*Dataset, error) {
	key, err := cacheKey(path, opt)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if v, ok := c.lru.Get(key); ok {
		return v.(*Dataset), nil
	}
	ds, err := Load(path, opt)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, ds)
	return ds, nil
}

// Len reports the number of cached datasets.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge drops every cached dataset.
func (c *Cache) Purge() { c.lru.Purge() }

func cacheKey(path string, opt Options) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat: %w", err)
	}
	return fmt.Sprintf("%s|%d|%d|%q|%d|%d|%d", abs, fi.Size(), fi.ModTime().UnixNano(),
		opt.SheetName, opt.SheetIndex, opt.Delimiter, opt.MaxRows), nil
}
