package cache

import "sync"

// MemoryBackend is a capacity-bounded in-memory backend. Overwrites of an
// existing key always succeed; inserting a new key beyond capacity reports
// ErrCapacity, mirroring a storage quota.
type MemoryBackend struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string][]byte
}

// NewMemoryBackend creates an in-memory backend holding up to maxEntries keys.
func NewMemoryBackend(maxEntries int) *MemoryBackend {
	return &MemoryBackend{
		maxEntries: maxEntries,
		entries:    make(map[string][]byte),
	}
}

func (b *MemoryBackend) Get(key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.entries[key]
	return v, ok, nil
}

func (b *MemoryBackend) Put(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.entries[key]; !exists && len(b.entries) >= b.maxEntries {
		return ErrCapacity
	}
	b.entries[key] = value
	return nil
}

func (b *MemoryBackend) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string][]byte)
	return nil
}

// Len reports the number of stored entries.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
