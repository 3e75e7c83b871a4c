package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryArtifactStore keeps artifacts in process memory and hands out
// mem:// refs. It backs development setups and tests where no blob
// account is configured.
type MemoryArtifactStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryArtifactStore creates an empty in-memory artifact store
func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{blobs: make(map[string][]byte)}
}

func (s *MemoryArtifactStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" {
		return "", fmt.Errorf("artifact name must not be empty")
	}
	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	s.blobs[name] = stored
	s.mu.Unlock()
	return "mem://" + name, nil
}

// Load returns a previously saved artifact by name
func (s *MemoryArtifactStore) Load(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[name]
	return data, ok
}

// Len returns the number of stored artifacts
func (s *MemoryArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
