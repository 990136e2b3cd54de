// manager_test.go - Tests for storage layer
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolam-koders/backend/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// indexBackends lists every Index implementation the store tests run against.
func indexBackends(t *testing.T) map[string]func(t *testing.T) Index {
	t.Helper()
	return map[string]func(t *testing.T) Index{
		"memory": func(t *testing.T) Index { return NewMemoryIndex() },
		"duckdb": func(t *testing.T) Index {
			idx, err := NewDuckIndex(filepath.Join(t.TempDir(), "index.duckdb"), 1)
			require.NoError(t, err)
			t.Cleanup(func() { idx.Close() })
			return idx
		},
	}
}

func createTestStore(t *testing.T, idx Index) (*LocalStore, *fakeClock) {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "/static/kolams", idx)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
	store.now = clock.now
	return store, clock
}

func testMeta(seed string) *models.ArtifactInfo {
	return &models.ArtifactInfo{
		Format:           "png",
		ContentType:      "image/png",
		Seed:             seed,
		Width:            13,
		Height:           13,
		NumMotifs:        7,
		InstructionCount: 64,
	}
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates artifacts directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "static", "kolams")

		store, err := NewLocalStore(dir, "/static/kolams", nil)
		require.NoError(t, err)

		_, err = os.Stat(dir)
		assert.NoError(t, err)
		assert.Equal(t, dir, store.Dir())
		assert.IsType(t, &MemoryIndex{}, store.index)
	})
}

func TestLocalStore(t *testing.T) {
	for name, newIndex := range indexBackends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("save writes file and metadata", func(t *testing.T) {
				store, clock := createTestStore(t, newIndex(t))

				info, err := store.Save(testMeta("abc"), strings.NewReader("png-bytes"))
				require.NoError(t, err)

				_, err = uuid.Parse(info.ID)
				assert.NoError(t, err)
				assert.Equal(t, "kolam_seed_abc_"+info.ID+".png", info.FileName)
				assert.Equal(t, "/static/kolams/"+info.FileName, info.URL)
				assert.Equal(t, int64(9), info.Size)
				assert.Equal(t, clock.t, info.CreatedAt)
				assert.Equal(t, 64, info.InstructionCount)

				data, err := os.ReadFile(filepath.Join(store.Dir(), info.FileName))
				require.NoError(t, err)
				assert.Equal(t, "png-bytes", string(data))

				got, err := store.Get(info.ID)
				require.NoError(t, err)
				assert.Equal(t, info, got)
			})

			t.Run("get unknown id", func(t *testing.T) {
				store, _ := createTestStore(t, newIndex(t))
				_, err := store.Get("missing")
				assert.True(t, errors.Is(err, ErrNotFound))

				_, err = store.GetFilePath("missing")
				assert.True(t, errors.Is(err, ErrNotFound))
			})

			t.Run("list newest first with limit", func(t *testing.T) {
				store, clock := createTestStore(t, newIndex(t))

				var ids []string
				for _, seed := range []string{"a", "b", "c"} {
					info, err := store.Save(testMeta(seed), strings.NewReader(seed))
					require.NoError(t, err)
					ids = append(ids, info.ID)
					clock.advance(time.Minute)
				}

				all, err := store.List(0)
				require.NoError(t, err)
				require.Len(t, all, 3)
				assert.Equal(t, ids[2], all[0].ID)
				assert.Equal(t, ids[1], all[1].ID)
				assert.Equal(t, ids[0], all[2].ID)

				two, err := store.List(2)
				require.NoError(t, err)
				require.Len(t, two, 2)
				assert.Equal(t, ids[2], two[0].ID)
			})

			t.Run("delete removes file and metadata", func(t *testing.T) {
				store, _ := createTestStore(t, newIndex(t))
				info, err := store.Save(testMeta("gone"), strings.NewReader("x"))
				require.NoError(t, err)

				path, err := store.GetFilePath(info.ID)
				require.NoError(t, err)

				require.NoError(t, store.Delete(info.ID))

				_, err = os.Stat(path)
				assert.True(t, os.IsNotExist(err))
				_, err = store.Get(info.ID)
				assert.True(t, errors.Is(err, ErrNotFound))
				assert.True(t, errors.Is(store.Delete(info.ID), ErrNotFound))
			})

			t.Run("cleanup removes only expired artifacts", func(t *testing.T) {
				store, clock := createTestStore(t, newIndex(t))

				old, err := store.Save(testMeta("old"), strings.NewReader("old"))
				require.NoError(t, err)
				clock.advance(2 * time.Hour)
				fresh, err := store.Save(testMeta("fresh"), strings.NewReader("fresh"))
				require.NoError(t, err)
				clock.advance(30 * time.Minute)

				n, err := store.CleanupOlderThan(time.Hour)
				require.NoError(t, err)
				assert.Equal(t, 1, n)

				_, err = store.Get(old.ID)
				assert.True(t, errors.Is(err, ErrNotFound))
				_, err = os.Stat(filepath.Join(store.Dir(), old.FileName))
				assert.True(t, os.IsNotExist(err))

				_, err = store.Get(fresh.ID)
				assert.NoError(t, err)
			})

			t.Run("returned metadata is a copy", func(t *testing.T) {
				store, _ := createTestStore(t, newIndex(t))
				info, err := store.Save(testMeta("copy"), strings.NewReader("x"))
				require.NoError(t, err)

				info.Seed = "changed"
				got, err := store.Get(info.ID)
				require.NoError(t, err)
				assert.Equal(t, "copy", got.Seed)
			})
		})
	}
}

func TestDuckIndex_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.duckdb")

	idx, err := NewDuckIndex(path, 1)
	require.NoError(t, err)
	info := testMeta("persist")
	info.ID = "a1"
	info.FileName = "kolam_seed_persist_a1.png"
	info.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, idx.Put(info))
	require.NoError(t, idx.Close())

	idx, err = NewDuckIndex(path, 1)
	require.NoError(t, err)
	defer idx.Close()

	got, err := idx.Get("a1")
	require.NoError(t, err)
	assert.Equal(t, info, got)

	older, err := idx.OlderThan(info.CreatedAt.Add(time.Second))
	require.NoError(t, err)
	assert.Len(t, older, 1)
}

func TestSanitizeSeed(t *testing.T) {
	cases := map[string]string{
		"abc":           "abc",
		"default_seed":  "default_seed",
		"42":            "42",
		"hello world!":  "hello_world_",
		"../etc/passwd": "___etc_passwd",
		"":              "default",
		"கோலம்":         "_____",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeSeed(in), in)
	}

	long := strings.Repeat("x", 100)
	assert.Len(t, SanitizeSeed(long), maxSeedInName)
}

func TestArtifactFileName(t *testing.T) {
	assert.Equal(t, "kolam_seed_s_1.svg", ArtifactFileName("s", "1", "SVG"))
}
