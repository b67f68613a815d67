package storage

import (
	"context"
	"sync"

	"github.com/raterudder/linky/pkg/types"
)

// MemoryStore keeps the session in process memory. It is mostly useful in
// tests and for runs that should never touch the disk.
type MemoryStore struct {
	mu   sync.Mutex
	sess *types.Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (types.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return types.Session{}, false, nil
	}
	return *m.sess, true, nil
}

func (m *MemoryStore) Save(ctx context.Context, sess types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = &sess
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
