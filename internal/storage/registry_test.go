package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registered_groups.json")

	r, err := NewRegistry(path)
	require.NoError(t, err)
	assert.Empty(t, r.ListAll())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
}

func TestRegistryRegisterAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registered_groups.json")
	r, err := NewRegistry(path)
	require.NoError(t, err)

	require.NoError(t, r.Register(100, "Team A"))
	require.NoError(t, r.Register(200, "Team B"))
	assert.True(t, r.Contains(100))

	groups := r.ListAll()
	assert.Len(t, groups, 2)

	// Reload from disk: registration survived.
	r2, err := NewRegistry(path)
	require.NoError(t, err)
	assert.True(t, r2.Contains(100))
	assert.True(t, r2.Contains(200))
}

func TestRegisterUpdatesDisplayName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registered_groups.json")
	r, err := NewRegistry(path)
	require.NoError(t, err)

	require.NoError(t, r.Register(100, "Team A"))
	require.NoError(t, r.Register(100, "Team A renamed"))

	groups := r.ListAll()
	require.Len(t, groups, 1)
	assert.Equal(t, "Team A renamed", groups[0].Name)
}

func TestUnregisterRemovesGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registered_groups.json")
	r, err := NewRegistry(path)
	require.NoError(t, err)

	require.NoError(t, r.Register(100, "Team A"))
	require.NoError(t, r.Unregister(100))

	assert.False(t, r.Contains(100))
	assert.Empty(t, r.ListAll())

	// Unregistering an unknown chat is a no-op.
	require.NoError(t, r.Unregister(999))
}

func TestRegistryCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registered_groups.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	r, err := NewRegistry(path)
	require.NoError(t, err)
	assert.Empty(t, r.ListAll())

	// The corrupt bytes are preserved for forensics.
	preserved, err := os.ReadFile(path + ".corrupt")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(preserved))

	// The fresh file is valid empty JSON.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Empty(t, m)
}

func TestRegistryToleratesHandEditedEmptyObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registered_groups.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	r, err := NewRegistry(path)
	require.NoError(t, err)
	assert.Empty(t, r.ListAll())
}
