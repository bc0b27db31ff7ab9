package ledger

import (
	"context"
	"sync"
)

// MemoryStore is a map-backed Store for tests and one-shot batch runs that
// have no business remembering anything across invocations.
type MemoryStore struct {
	mu     sync.Mutex
	hashes map[string]string
	drive  map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes: make(map[string]string),
		drive:  make(map[string]struct{}),
	}
}

func (s *MemoryStore) Has(_ context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.hashes[hash]
	return ok, nil
}

func (s *MemoryStore) Record(_ context.Context, hash, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[hash]; !ok {
		s.hashes[hash] = path
	}
	return nil
}

func (s *MemoryStore) HasDriveFile(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.drive[id]
	return ok, nil
}

func (s *MemoryStore) RecordDriveFile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drive[id] = struct{}{}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
