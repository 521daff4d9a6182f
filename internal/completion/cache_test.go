package completion

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drmind/mindtalk-cli/internal/models"
)

func TestStoreUpdateAndItems(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.Update(Characters, []CachedItem{{ID: 7, Name: "Luna"}}))
	require.NoError(t, store.Update(Sessions, []CachedItem{{ID: 3, Name: "Sleep"}}))

	assert.Equal(t, []CachedItem{{ID: 7, Name: "Luna"}}, store.Items(Characters))
	assert.Equal(t, []CachedItem{{ID: 3, Name: "Sleep"}}, store.Items(Sessions))
	assert.Empty(t, store.Items(Counselors))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStoreUpdateKeepsOtherSections(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.Update(Characters, []CachedItem{{ID: 7, Name: "Luna"}}))
	before, err := store.Load()
	require.NoError(t, err)

	require.NoError(t, store.Update(Counselors, []CachedItem{{ID: 2, Name: "Dr. Kim"}}))
	after, err := store.Load()
	require.NoError(t, err)

	assert.Len(t, after.Characters, 1)
	assert.True(t, before.CharactersUpdatedAt.Equal(after.CharactersUpdatedAt))
	assert.False(t, after.CounselorsUpdatedAt.IsZero())
}

func TestStoreLoadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	cache, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, CacheVersion, cache.Version)

	require.NoError(t, os.WriteFile(filepath.Join(dir, CacheFileName), []byte("{nope"), 0600))
	cache, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, cache.Characters)

	require.NoError(t, os.WriteFile(filepath.Join(dir, CacheFileName), []byte(`{"version":99,"characters":[{"id":1}]}`), 0600))
	cache, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, cache.Characters, "unknown schema versions are discarded")
}

func TestStoreIsStale(t *testing.T) {
	store := NewStore(t.TempDir())
	assert.True(t, store.IsStale(DefaultMaxAge), "empty cache is stale")

	require.NoError(t, store.Update(Characters, nil))
	require.NoError(t, store.Update(Counselors, nil))
	assert.True(t, store.IsStale(DefaultMaxAge), "missing section is stale")

	require.NoError(t, store.Update(Sessions, nil))
	assert.False(t, store.IsStale(DefaultMaxAge))
	assert.True(t, store.IsStale(-time.Second))
}

func TestStoreClear(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Clear(), "clearing a missing cache is fine")

	require.NoError(t, store.Update(Sessions, []CachedItem{{ID: 1}}))
	require.NoError(t, store.Clear())
	assert.Empty(t, store.Items(Sessions))
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("MINDTALK_CACHE_DIR", "")
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")
	assert.Equal(t, filepath.Join("/xdg/cache", "mindtalk"), DefaultCacheDir())

	t.Setenv("MINDTALK_CACHE_DIR", "/explicit")
	assert.Equal(t, "/explicit", DefaultCacheDir())
	assert.Equal(t, "/explicit", NewStore("").Dir())
}

func TestFromModels(t *testing.T) {
	sessions := FromSessions([]models.Session{
		{ID: 3, Title: "Sleep", UpdatedAt: "2026-10-01T09:00:00Z", LastMessage: "good night"},
		{ID: 4, UpdatedAt: "yesterday"},
	})
	require.Len(t, sessions, 2)
	assert.Equal(t, "Sleep", sessions[0].Name)
	assert.Equal(t, "good night", sessions[0].Detail)
	assert.Equal(t, 2026, sessions[0].UpdatedAt.Year())
	assert.Equal(t, "Session 4", sessions[1].Name)
	assert.True(t, sessions[1].UpdatedAt.IsZero())

	counselors := FromCounselors([]models.Counselor{{ID: 2, Name: "Dr. Kim", Specialty: "Anxiety"}})
	assert.Equal(t, "Anxiety", counselors[0].Detail)

	assert.Equal(t, []CachedItem{{ID: 7, Name: "Luna"}}, FromCharacters([]models.Character{{ID: 7, Name: "Luna"}}))
}
