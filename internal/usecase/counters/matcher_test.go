package counters

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanMessageMatchesSubstringCaseInsensitive(t *testing.T) {
	store := newTestStore(t, &fakeRepo{})
	_, _, err := store.Add(context.Background(), "gol", nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		hits int
	}{
		{name: "coincidencia exacta", text: "gol", hits: 1},
		{name: "mayúsculas", text: "GOL del equipo", hits: 1},
		{name: "subcadena dentro de palabra", text: "golazo tremendo", hits: 1},
		{name: "sin coincidencia", text: "qué partido", hits: 0},
		{name: "texto vacío", text: "   ", hits: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := store.ScanMessage(context.Background(), tt.text)
			assert.Len(t, hits, tt.hits)
		})
	}
}

func TestScanMessageIncrementsOncePerCounter(t *testing.T) {
	store := newTestStore(t, &fakeRepo{})
	_, _, err := store.Add(context.Background(), "risa", []string{"jaja", "lol"})
	require.NoError(t, err)

	// nombre y dos alias en el mismo mensaje: un solo incremento
	hits := store.ScanMessage(context.Background(), "risa jaja lol jaja")
	require.Len(t, hits, 1)
	assert.Equal(t, "risa", hits[0].Name)
	assert.Equal(t, 1, hits[0].Count)

	// el mismo mensaje repetido sí vuelve a sumar
	hits = store.ScanMessage(context.Background(), "risa jaja lol jaja")
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Count)
}

func TestScanMessageCountsEachCounterSeparately(t *testing.T) {
	store := newTestStore(t, &fakeRepo{})
	_, _, err := store.Add(context.Background(), "perro", []string{"guau"})
	require.NoError(t, err)
	_, _, err = store.Add(context.Background(), "gato", []string{"miau"})
	require.NoError(t, err)

	hits := store.ScanMessage(context.Background(), "el perro dijo guau y el gato miau")
	require.Len(t, hits, 2)

	// resultados ordenados por nombre para que la respuesta sea estable
	assert.Equal(t, "gato", hits[0].Name)
	assert.Equal(t, "perro", hits[1].Name)
	assert.Equal(t, 1, hits[0].Count)
	assert.Equal(t, 1, hits[1].Count)
}

func TestScanMessageSkipsCommands(t *testing.T) {
	store := newTestStore(t, &fakeRepo{})
	_, _, err := store.Add(context.Background(), "cnt", nil)
	require.NoError(t, err)

	store.SetCommandChecker(func(text string) bool {
		return strings.HasPrefix(text, "/")
	})

	hits := store.ScanMessage(context.Background(), "/cnt list")
	assert.Empty(t, hits, "un comando no debe disparar el conteo")

	hits = store.ScanMessage(context.Background(), "cnt a secas sí cuenta")
	assert.Len(t, hits, 1)
}

func TestScanMessageReportsMatchedPattern(t *testing.T) {
	store := newTestStore(t, &fakeRepo{})
	_, _, err := store.Add(context.Background(), "derrota", []string{"F", "rip"})
	require.NoError(t, err)

	hits := store.ScanMessage(context.Background(), "rip al equipo")
	require.Len(t, hits, 1)
	assert.Equal(t, "derrota", hits[0].Name)
	assert.Equal(t, "rip", hits[0].Pattern)
}

func TestScanMessagePersistsBatchOnce(t *testing.T) {
	repo := &fakeRepo{}
	store := newTestStore(t, repo)
	_, _, err := store.Add(context.Background(), "perro", nil)
	require.NoError(t, err)
	_, _, err = store.Add(context.Background(), "gato", nil)
	require.NoError(t, err)

	before := repo.saves
	hits := store.ScanMessage(context.Background(), "perro y gato")
	require.Len(t, hits, 2)
	assert.Equal(t, before+1, repo.saves, "dos incrementos, un solo guardado")

	// sin incrementos no hay guardado
	store.ScanMessage(context.Background(), "nada que contar aquí")
	assert.Equal(t, before+1, repo.saves)
}
