package docstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend keeps documents in process memory.
type MemoryBackend struct {
	mu    sync.Mutex
	docs  map[string][]byte
	locks map[string]*sync.Mutex
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs:  make(map[string][]byte),
		locks: make(map[string]*sync.Mutex),
	}
}

// Load returns a copy of the stored bytes.
func (b *MemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.docs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, key)
	}
	return append([]byte(nil), data...), nil
}

// Save stores a copy of data.
func (b *MemoryBackend) Save(_ context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.docs[key] = append([]byte(nil), data...)
	return nil
}

// Lock holds a per-key mutex.
func (b *MemoryBackend) Lock(ctx context.Context, key string) (func(), error) {
	b.mu.Lock()
	lock, ok := b.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[key] = lock
	}
	b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lock.Lock()
	return lock.Unlock, nil
}
