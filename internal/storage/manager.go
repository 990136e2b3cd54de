package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kolam-koders/backend/internal/models"
)

// ErrNotFound is returned when no artifact has the requested ID.
var ErrNotFound = errors.New("artifact not found")

const maxSeedInName = 48

// Store defines the interface for artifact storage.
type Store interface {
	Save(meta *models.ArtifactInfo, r io.Reader) (*models.ArtifactInfo, error)
	Get(id string) (*models.ArtifactInfo, error)
	List(limit int) ([]*models.ArtifactInfo, error)
	Delete(id string) error
	GetFilePath(id string) (string, error)
	CleanupOlderThan(age time.Duration) (int, error)
}

// LocalStore implements Store with image files in one directory and
// metadata in an Index.
type LocalStore struct {
	mu        sync.Mutex
	dir       string
	urlPrefix string
	index     Index
	now       func() time.Time
	log       *logrus.Entry
}

// NewLocalStore creates a store writing into dir. urlPrefix is the public
// path the directory is served under, e.g. "/static/kolams".
func NewLocalStore(dir, urlPrefix string, index Index) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating artifacts directory: %w", err)
	}
	if index == nil {
		index = NewMemoryIndex()
	}

	return &LocalStore{
		dir:       dir,
		urlPrefix: urlPrefix,
		index:     index,
		now:       time.Now,
		log:       logrus.WithField("component", "storage"),
	}, nil
}

// Dir returns the directory artifacts are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes r to a new artifact file. meta supplies the descriptive
// fields; ID, FileName, Size, CreatedAt and URL are assigned here.
func (s *LocalStore) Save(meta *models.ArtifactInfo, r io.Reader) (*models.ArtifactInfo, error) {
	id := uuid.New().String()
	name := ArtifactFileName(meta.Seed, id, meta.Format)
	p := filepath.Join(s.dir, name)

	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(p)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := meta.Clone()
	info.ID = id
	info.FileName = name
	info.Size = size
	info.CreatedAt = s.now().UTC().Truncate(time.Microsecond)
	info.URL = path.Join(s.urlPrefix, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Put(info); err != nil {
		os.Remove(p)
		return nil, fmt.Errorf("indexing artifact: %w", err)
	}

	return info, nil
}

// Get retrieves artifact metadata by ID.
func (s *LocalStore) Get(id string) (*models.ArtifactInfo, error) {
	return s.index.Get(id)
}

// List returns the most recent artifacts, newest first. A limit of zero or
// less returns everything.
func (s *LocalStore) List(limit int) ([]*models.ArtifactInfo, error) {
	return s.index.List(limit)
}

// Delete removes an artifact file and its metadata.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(id)
}

func (s *LocalStore) deleteLocked(id string) error {
	info, err := s.index.Get(id)
	if err != nil {
		return err
	}

	p := filepath.Join(s.dir, info.FileName)
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	return s.index.Delete(id)
}

// GetFilePath returns the absolute path to an artifact file.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	info, err := s.index.Get(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, info.FileName), nil
}

// CleanupOlderThan deletes artifacts created more than age ago and returns
// how many were removed.
func (s *LocalStore) CleanupOlderThan(age time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-age)

	s.mu.Lock()
	defer s.mu.Unlock()

	stale, err := s.index.OlderThan(cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, info := range stale {
		if err := s.deleteLocked(info.ID); err != nil {
			s.log.WithError(err).WithField("id", info.ID).Warn("failed to remove expired artifact")
			continue
		}
		removed++
	}
	return removed, nil
}

// Close releases the index.
func (s *LocalStore) Close() error {
	return s.index.Close()
}

// ArtifactFileName builds "kolam_seed_<seed>_<id>.<format>" with the seed
// reduced to characters that are safe in file names and URLs.
func ArtifactFileName(seed, id, format string) string {
	return fmt.Sprintf("kolam_seed_%s_%s.%s", SanitizeSeed(seed), id, strings.ToLower(format))
}

// SanitizeSeed keeps ASCII letters, digits, '-' and '_', replacing anything
// else with '_'.
func SanitizeSeed(seed string) string {
	var b strings.Builder
	for _, r := range seed {
		if b.Len() >= maxSeedInName {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "default"
	}
	return b.String()
}
