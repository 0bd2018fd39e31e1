package state

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a minimal in-memory Store implementation intended for tests
// and examples. An optional quota bounds the total payload bytes held, which
// lets callers exercise quota failures the way browser storage reports them.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
	quota   int
	used    int
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithQuota caps the total bytes the store accepts. Zero disables the cap.
func WithQuota(bytes int) MemoryOption {
	return func(s *MemoryStore) {
		s.quota = bytes
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{records: map[string][]byte{}}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	payload, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, payload []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	used := s.used - len(s.records[key]) + len(payload)
	if s.quota > 0 && used > s.quota {
		return fmt.Errorf("%w: %d bytes over %d", ErrQuotaExceeded, used, s.quota)
	}
	s.records[key] = append([]byte(nil), payload...)
	s.used = used
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	s.used -= len(s.records[key])
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// Keys returns the number of stored keys.
func (s *MemoryStore) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
