package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FSSnapshotStore writes page snapshots under a root directory, mirroring the
// object name as a relative path.
type FSSnapshotStore struct {
	root string
}

// NewFSSnapshotStore validates the root directory exists or can be created.
func NewFSSnapshotStore(root string) (*FSSnapshotStore, error) {
	if root == "" {
		return nil, fmt.Errorf("snapshot root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot root: %w", err)
	}
	return &FSSnapshotStore{root: root}, nil
}

// Save writes data to root/objectName, creating intermediate directories.
func (s *FSSnapshotStore) Save(ctx context.Context, objectName string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if objectName == "" {
		return fmt.Errorf("object name is required")
	}
	path := filepath.Join(s.root, filepath.FromSlash(objectName))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("object name %q escapes snapshot root", objectName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// MemorySnapshotStore keeps snapshots in a map for tests.
type MemorySnapshotStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemorySnapshotStore returns an empty store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{objects: make(map[string][]byte)}
}

// Save stores a copy of data under objectName.
func (s *MemorySnapshotStore) Save(_ context.Context, objectName string, data []byte) error {
	if objectName == "" {
		return fmt.Errorf("object name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = append([]byte(nil), data...)
	return nil
}

// Object returns the stored bytes for objectName, if present.
func (s *MemorySnapshotStore) Object(objectName string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objectName]
	return data, ok
}

// Len reports the number of stored snapshots.
func (s *MemorySnapshotStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
