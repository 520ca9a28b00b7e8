package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cntBot/internal/domain"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")
	store := NewStore(path)

	table := map[string]*domain.Counter{
		"gol":  {Name: "gol", Count: 7, Aliases: []string{"golazo", "GOOOL"}},
		"risa": {Name: "risa", Count: 0},
	}
	require.NoError(t, store.Save(context.Background(), table))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, 7, loaded["gol"].Count)
	assert.Equal(t, []string{"golazo", "GOOOL"}, loaded["gol"].Aliases)
	assert.Equal(t, 0, loaded["risa"].Count)
	assert.Empty(t, loaded["risa"].Aliases)
}

func TestStoreLoadMissingFileIsEmptyTable(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "no-existe.json"))

	table, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table)
	assert.NotNil(t, table)
}

func TestStoreLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")
	require.NoError(t, os.WriteFile(path, []byte("{esto no es json"), 0o644))

	_, err := NewStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestStoreSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anidado", "hondo", "counters.json")
	store := NewStore(path)

	err := store.Save(context.Background(), map[string]*domain.Counter{
		"uno": {Name: "uno", Count: 1},
	})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestStoreSaveWritesAliasesAsListNeverNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")
	store := NewStore(path)

	require.NoError(t, store.Save(context.Background(), map[string]*domain.Counter{
		"solo": {Name: "solo", Count: 2},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"aliases": []`)
	assert.NotContains(t, string(data), "null")
}

func TestStoreSaveReplacesDocumentWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "counters.json")
	store := NewStore(path)

	require.NoError(t, store.Save(context.Background(), map[string]*domain.Counter{
		"viejo": {Name: "viejo", Count: 1},
	}))
	require.NoError(t, store.Save(context.Background(), map[string]*domain.Counter{
		"nuevo": {Name: "nuevo", Count: 2},
	}))

	// el guardado pasa por un temporal y un rename: al final solo queda el
	// documento definitivo, con el último contenido
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "counters.json", entries[0].Name())

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 2, loaded["nuevo"].Count)
}
