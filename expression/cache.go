package expression

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is used by NewLRU when size is not positive.
const DefaultCacheSize = 256

// Cache holds compiled programs. *lru.Cache[string, any] satisfies it.
type Cache interface {
	Get(key string) (any, bool)
	Add(key string, value any) bool
}

// NewLRU returns a cache that evicts the least recently used program.
func NewLRU(size int) (*lru.Cache[string, any], error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, any](size)
	if err != nil {
		return nil, fmt.Errorf("expression: cache: %w", err)
	}
	return cache, nil
}

// load returns the cached value under key or compiles and stores it.
func load[T any](cache Cache, key string, compile func() (T, error)) (T, error) {
	if cache != nil {
		if cached, ok := cache.Get(key); ok {
			if v, ok := cached.(T); ok {
				return v, nil
			}
		}
	}
	v, err := compile()
	if err != nil {
		return v, err
	}
	if cache != nil {
		cache.Add(key, v)
	}
	return v, nil
}
