package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrKeyRequired = errors.New("state: key is required")

var ErrQuotaExceeded = errors.New("state: quota exceeded")

// Store loads and saves one serialized snapshot per key.
type Store interface {
	Load(ctx context.Context, key string) (payload []byte, ok bool, err error)
	Save(ctx context.Context, key string, payload []byte) error
}

// Deleter is implemented by stores that can drop a key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects blank keys and keys containing path separators or
// control characters, which every backend would have to escape differently.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrKeyRequired
	}
	for _, r := range key {
		if r == '/' || r == '\\' || r < 0x20 {
			return fmt.Errorf("state: invalid key %q", key)
		}
	}
	return nil
}
