package counters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cntBot/internal/domain"
	"cntBot/internal/infrastructure/logger"
)

type fakeRepo struct {
	table    map[string]*domain.Counter
	loadErr  error
	saveErr  error
	saves    int
	lastSave map[string]*domain.Counter
}

func (r *fakeRepo) Load(ctx context.Context) (map[string]*domain.Counter, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.table, nil
}

func (r *fakeRepo) Save(ctx context.Context, table map[string]*domain.Counter) error {
	r.saves++
	r.lastSave = table
	return r.saveErr
}

func newTestStore(t *testing.T, repo domain.CounterRepository) *Store {
	t.Helper()
	return NewStore(context.Background(), repo, logger.NewNop())
}

func TestStoreAddCreatesCounter(t *testing.T) {
	repo := &fakeRepo{}
	store := newTestStore(t, repo)

	counter, created, err := store.Add(context.Background(), "Tetris", []string{"bloques", "tetrominó"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Tetris", counter.Name)
	assert.Equal(t, 0, counter.Count)
	assert.Equal(t, []string{"bloques", "tetrominó"}, counter.Aliases)
	assert.Equal(t, 1, repo.saves)
}

func TestStoreAddMergePreservesCount(t *testing.T) {
	repo := &fakeRepo{}
	store := newTestStore(t, repo)

	_, _, err := store.Add(context.Background(), "risa", []string{"jaja"})
	require.NoError(t, err)

	hits := store.ScanMessage(context.Background(), "jaja qué bueno")
	require.Len(t, hits, 1)
	require.Equal(t, 1, hits[0].Count)

	// mismo nombre con otras mayúsculas: unión de alias, el conteo no se toca
	counter, created, err := store.Add(context.Background(), "RISA", []string{"jeje", "jaja"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "risa", counter.Name)
	assert.Equal(t, 1, counter.Count)
	assert.Equal(t, []string{"jaja", "jeje"}, counter.Aliases)
}

func TestStoreAddCollectsAllConflicts(t *testing.T) {
	store := newTestStore(t, &fakeRepo{})

	_, _, err := store.Add(context.Background(), "alpha", []string{"a1", "a2"})
	require.NoError(t, err)
	_, _, err = store.Add(context.Background(), "beta", []string{"b1"})
	require.NoError(t, err)

	// nombre ocupado como alias ajeno + tres alias inválidos en una llamada
	_, _, err = store.Add(context.Background(), "a1", []string{"beta", "b1", ""})
	require.Error(t, err)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Len(t, conflict.Conflicts, 4)

	// una llamada con conflictos no muta nada
	_, ok := store.Resolve("a1")
	assert.True(t, ok, "a1 debe seguir siendo alias de alpha")
	name, _ := store.Resolve("a1")
	assert.Equal(t, "alpha", name)
	assert.Equal(t, 2, store.Len())
}

func TestStoreAddRejectsAliasEqualToName(t *testing.T) {
	store := newTestStore(t, &fakeRepo{})

	_, _, err := store.Add(context.Background(), "eco", []string{"Eco"})
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, 0, store.Len())
}

func TestStoreAddDeduplicatesAliasesWithinCall(t *testing.T) {
	store := newTestStore(t, &fakeRepo{})

	counter, _, err := store.Add(context.Background(), "gol", []string{"golazo", "GOLAZO", "golazo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"golazo"}, counter.Aliases)
}

func TestStoreDeleteByAliasRemovesWholeCounter(t *testing.T) {
	repo := &fakeRepo{}
	store := newTestStore(t, repo)

	_, _, err := store.Add(context.Background(), "susto", []string{"grito", "aaah"})
	require.NoError(t, err)

	name, err := store.Delete(context.Background(), "GRITO")
	require.NoError(t, err)
	assert.Equal(t, "susto", name)

	// el contador cae entero: nombre y resto de alias dejan de resolver
	_, ok := store.Resolve("susto")
	assert.False(t, ok)
	_, ok = store.Resolve("aaah")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStoreDeletePrefersAliasOverName(t *testing.T) {
	// Una tabla editada a mano puede dejar la misma clave como nombre de un
	// contador y alias de otro; en ese caso gana la lectura como alias.
	store := newTestStore(t, &fakeRepo{
		table: map[string]*domain.Counter{
			"uno": {Name: "uno"},
			"dos": {Name: "dos", Aliases: []string{"uno"}},
		},
	})

	name, err := store.Delete(context.Background(), "uno")
	require.NoError(t, err)
	assert.Equal(t, "dos", name)

	_, ok := store.Resolve("uno")
	assert.True(t, ok, "el contador «uno» debe sobrevivir")
	assert.Equal(t, 1, store.Len())
}

func TestStoreDeleteUnknownKey(t *testing.T) {
	store := newTestStore(t, &fakeRepo{})

	_, err := store.Delete(context.Background(), "fantasma")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreListOrdersByCountThenName(t *testing.T) {
	store := newTestStore(t, &fakeRepo{
		table: map[string]*domain.Counter{
			"zeta":  {Name: "zeta", Count: 3},
			"alfa":  {Name: "alfa", Count: 3},
			"omega": {Name: "omega", Count: 9},
			"beta":  {Name: "beta", Count: 1},
		},
	})

	list := store.List()
	require.Len(t, list, 4)

	names := make([]string, 0, len(list))
	for _, c := range list {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"omega", "alfa", "zeta", "beta"}, names)
}

func TestStoreListReturnsClones(t *testing.T) {
	store := newTestStore(t, &fakeRepo{})

	_, _, err := store.Add(context.Background(), "nube", []string{"cielo"})
	require.NoError(t, err)

	list := store.List()
	require.Len(t, list, 1)
	list[0].Count = 999
	list[0].Aliases[0] = "roto"

	fresh := store.List()
	assert.Equal(t, 0, fresh[0].Count)
	assert.Equal(t, []string{"cielo"}, fresh[0].Aliases)
}

func TestStoreResolveIsCaseInsensitive(t *testing.T) {
	store := newTestStore(t, &fakeRepo{})

	_, _, err := store.Add(context.Background(), "Boss", []string{"Jefe"})
	require.NoError(t, err)

	tests := []struct {
		key  string
		want string
	}{
		{key: "boss", want: "Boss"},
		{key: "BOSS", want: "Boss"},
		{key: "  jefe ", want: "Boss"},
		{key: "JeFe", want: "Boss"},
	}
	for _, tt := range tests {
		name, ok := store.Resolve(tt.key)
		require.True(t, ok, "clave %q", tt.key)
		assert.Equal(t, tt.want, name)
	}
}

func TestNewStoreStartsEmptyWhenLoadFails(t *testing.T) {
	repo := &fakeRepo{loadErr: errors.New("fichero corrupto")}
	store := newTestStore(t, repo)

	assert.Equal(t, 0, store.Len())

	// el store degradado sigue aceptando mutaciones con normalidad
	_, created, err := store.Add(context.Background(), "nuevo", nil)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestStoreFlushPersistsSnapshot(t *testing.T) {
	repo := &fakeRepo{}
	store := newTestStore(t, repo)

	_, _, err := store.Add(context.Background(), "meta", []string{"objetivo"})
	require.NoError(t, err)

	before := repo.saves
	store.Flush(context.Background())
	require.Equal(t, before+1, repo.saves)
	require.Contains(t, repo.lastSave, "meta")
	assert.Equal(t, []string{"objetivo"}, repo.lastSave["meta"].Aliases)
}

func TestStoreSurvivesSaveErrors(t *testing.T) {
	repo := &fakeRepo{saveErr: errors.New("disco lleno")}
	store := newTestStore(t, repo)

	_, _, err := store.Add(context.Background(), "tenaz", nil)
	require.NoError(t, err, "un fallo de guardado no debe romper la mutación")

	name, ok := store.Resolve("tenaz")
	require.True(t, ok)
	assert.Equal(t, "tenaz", name)
}
