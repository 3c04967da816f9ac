package driver

import (
	"context"
	"sync"
)

// Pinger store availability probe, used by the liveness endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// AccountField field holding the account profile of a memory document
const AccountField = "account"

// MemoryDB process local document store, every document is a set of named fields
// holding encoded values. Used for development and as the test double of the
// remote stores.
type MemoryDB struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

var _ Pinger = &MemoryDB{}

// NewMemoryDB create an empty MemoryDB
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{docs: make(map[string]map[string][]byte)}
}

// Get return a copy of the document fields
func (m *MemoryDB) Get(id string) (map[string][]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, false
	}
	return copyDoc(doc), true
}

// Mutate run fn with a copy of the document under the write lock, a non-nil
// result replaces the stored document
func (m *MemoryDB) Mutate(id string, fn func(doc map[string][]byte, exists bool) (map[string][]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	next, err := fn(copyDoc(doc), ok)
	if err != nil {
		return err
	}
	if next != nil {
		m.docs[id] = next
	}
	return nil
}

// Ping always succeeds
func (m *MemoryDB) Ping(ctx context.Context) error {
	return nil
}

func copyDoc(doc map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(doc))
	for k, v := range doc {
		out[k] = append([]byte(nil), v...)
	}
	return out
}
