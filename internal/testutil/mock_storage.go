// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/kolam-koders/backend/internal/models"
	"github.com/kolam-koders/backend/internal/storage"
)

// MockStorage implements storage.Store for testing. Artifacts are written to
// a temp directory so handlers can serve them back.
type MockStorage struct {
	mu       sync.RWMutex
	dir      string
	files    map[string]*models.ArtifactInfo
	fileData map[string][]byte
	counter  int

	// SaveErr, when set, is returned by every Save call.
	SaveErr error
	// Now stamps CreatedAt; defaults to time.Now.
	Now func() time.Time
}

// NewMockStorage creates a mock writing into dir.
func NewMockStorage(dir string) *MockStorage {
	return &MockStorage{
		dir:      dir,
		files:    make(map[string]*models.ArtifactInfo),
		fileData: make(map[string][]byte),
		Now:      time.Now,
	}
}

func (m *MockStorage) Save(meta *models.ArtifactInfo, r io.Reader) (*models.ArtifactInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	info := meta.Clone()
	info.ID = fmt.Sprintf("test-id-%d", m.counter)
	info.FileName = storage.ArtifactFileName(meta.Seed, info.ID, meta.Format)
	info.Size = int64(len(data))
	info.CreatedAt = m.Now()
	info.URL = path.Join("/static/kolams", info.FileName)

	if err := os.WriteFile(filepath.Join(m.dir, info.FileName), data, 0644); err != nil {
		return nil, err
	}
	m.files[info.ID] = info
	m.fileData[info.ID] = data
	return info.Clone(), nil
}

func (m *MockStorage) Get(id string) (*models.ArtifactInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return info.Clone(), nil
}

func (m *MockStorage) List(limit int) ([]*models.ArtifactInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*models.ArtifactInfo, 0, len(m.files))
	for _, info := range m.files {
		list = append(list, info.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.files[id]
	if !ok {
		return storage.ErrNotFound
	}
	os.Remove(filepath.Join(m.dir, info.FileName))
	delete(m.files, id)
	delete(m.fileData, id)
	return nil
}

func (m *MockStorage) GetFilePath(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[id]
	if !ok {
		return "", storage.ErrNotFound
	}
	return filepath.Join(m.dir, info.FileName), nil
}

func (m *MockStorage) CleanupOlderThan(age time.Duration) (int, error) {
	cutoff := m.Now().Add(-age)
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, info := range m.files {
		if info.CreatedAt.Before(cutoff) {
			os.Remove(filepath.Join(m.dir, info.FileName))
			delete(m.files, id)
			delete(m.fileData, id)
			n++
		}
	}
	return n, nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// GetFileData returns the stored bytes for an artifact
func (m *MockStorage) GetFileData(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.fileData[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

// GetFileCount returns the number of stored artifacts
func (m *MockStorage) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
