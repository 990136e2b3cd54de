package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/kolam-koders/backend/internal/models"
)

// Index keeps artifact metadata. Implementations return copies so callers
// cannot mutate stored records.
type Index interface {
	Put(info *models.ArtifactInfo) error
	Get(id string) (*models.ArtifactInfo, error)
	List(limit int) ([]*models.ArtifactInfo, error)
	Delete(id string) error
	OlderThan(cutoff time.Time) ([]*models.ArtifactInfo, error)
	Close() error
}

// MemoryIndex is an Index held in a map. Its contents are lost on restart.
type MemoryIndex struct {
	mu    sync.RWMutex
	items map[string]*models.ArtifactInfo
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{items: make(map[string]*models.ArtifactInfo)}
}

func (m *MemoryIndex) Put(info *models.ArtifactInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[info.ID] = info.Clone()
	return nil
}

func (m *MemoryIndex) Get(id string) (*models.ArtifactInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return info.Clone(), nil
}

func (m *MemoryIndex) List(limit int) ([]*models.ArtifactInfo, error) {
	m.mu.RLock()
	list := make([]*models.ArtifactInfo, 0, len(m.items))
	for _, info := range m.items {
		list = append(list, info.Clone())
	}
	m.mu.RUnlock()

	// Newest first; ID breaks ties so the order is stable.
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MemoryIndex) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryIndex) OlderThan(cutoff time.Time) ([]*models.ArtifactInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []*models.ArtifactInfo
	for _, info := range m.items {
		if info.CreatedAt.Before(cutoff) {
			list = append(list, info.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (m *MemoryIndex) Close() error { return nil }
