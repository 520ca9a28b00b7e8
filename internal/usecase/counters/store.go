package counters

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"cntBot/internal/domain"
	"cntBot/internal/infrastructure/logger"
)

// Store es el dueño único de la tabla de contadores durante la vida del
// proceso. Un solo mutex cubre validar → mutar → reconstruir índices →
// persistir, para que comandos y conteo automático no se pisen a medias.
type Store struct {
	repo domain.CounterRepository
	log  *logger.Logger

	mu         sync.RWMutex
	counters   map[string]*domain.Counter // clave: nombre canónico, tal como se escribió
	nameIndex  map[string]string          // nombre normalizado -> nombre canónico
	aliasIndex map[string]string          // alias normalizado -> nombre canónico
	isCommand  func(string) bool
}

// NewStore carga la tabla desde el repositorio. Si la carga falla, arranca
// con la tabla vacía y lo deja en el log: un fichero roto no tumba el bot.
func NewStore(ctx context.Context, repo domain.CounterRepository, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Store{
		repo:     repo,
		log:      log,
		counters: make(map[string]*domain.Counter),
	}

	if repo != nil {
		table, err := repo.Load(ctx)
		if err != nil {
			log.Error("counters: no se pudo cargar la tabla, arrancando vacía", "error", err)
		} else {
			for name, c := range table {
				name = strings.TrimSpace(name)
				if name == "" || c == nil {
					continue
				}
				copied := cloneCounter(c)
				copied.Name = name
				s.counters[name] = copied
			}
		}
	}
	s.rebuildIndexLocked()

	log.Info("counters: tabla cargada", "contadores", len(s.counters))
	return s
}

// Add crea el contador o, si el nombre ya existe (sin distinguir mayúsculas),
// une los alias nuevos a los existentes conservando el conteo. Todos los
// conflictos de la llamada se devuelven juntos en un único ConflictError.
func (s *Store) Add(ctx context.Context, name string, aliases []string) (*domain.Counter, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("nombre vacío")
	}
	key := normalize(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	var conflicts []string
	canonical, merging := s.nameIndex[key]
	if owner, ok := s.aliasIndex[key]; ok {
		conflicts = append(conflicts,
			fmt.Sprintf("el nombre «%s» ya está en uso como alias de «%s»", name, owner))
	}

	seen := make(map[string]struct{})
	var accepted []string
	for _, raw := range aliases {
		alias := strings.TrimSpace(raw)
		aliasKey := normalize(alias)

		if aliasKey == "" || aliasKey == key {
			conflicts = append(conflicts,
				fmt.Sprintf("el alias «%s» no es válido (vacío o igual al nombre)", alias))
			continue
		}
		if other, ok := s.nameIndex[aliasKey]; ok {
			conflicts = append(conflicts,
				fmt.Sprintf("el alias «%s» choca con el contador «%s»", alias, other))
			continue
		}
		if owner, ok := s.aliasIndex[aliasKey]; ok {
			if !merging || owner != canonical {
				conflicts = append(conflicts,
					fmt.Sprintf("el alias «%s» ya está ocupado por «%s»", alias, owner))
			}
			// si ya era alias de este mismo contador, la unión lo deja igual
			continue
		}
		if _, dup := seen[aliasKey]; dup {
			continue
		}
		seen[aliasKey] = struct{}{}
		accepted = append(accepted, alias)
	}

	if len(conflicts) > 0 {
		return nil, false, &ConflictError{Conflicts: conflicts}
	}

	var counter *domain.Counter
	if merging {
		counter = s.counters[canonical]
		counter.Aliases = append(counter.Aliases, accepted...)
	} else {
		counter = &domain.Counter{Name: name, Aliases: accepted}
		s.counters[name] = counter
	}

	s.rebuildIndexLocked()
	s.persistLocked(ctx)

	return cloneCounter(counter), !merging, nil
}

// Delete resuelve la clave primero contra los alias y después contra los
// nombres, y elimina el contador entero con todos sus alias de una vez.
func (s *Store) Delete(ctx context.Context, key string) (string, error) {
	lookup := normalize(key)
	if lookup == "" {
		return "", ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	canonical, ok := s.aliasIndex[lookup]
	if !ok {
		canonical, ok = s.nameIndex[lookup]
	}
	if !ok {
		return "", ErrNotFound
	}

	delete(s.counters, canonical)
	s.rebuildIndexLocked()
	s.persistLocked(ctx)

	return canonical, nil
}

// List devuelve una copia ordenada por conteo descendente; los empates se
// deshacen por nombre ascendente.
func (s *Store) List() []*domain.Counter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Counter, 0, len(s.counters))
	for _, c := range s.counters {
		out = append(out, cloneCounter(c))
	}
	slices.SortFunc(out, func(a, b *domain.Counter) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Resolve traduce un nombre o alias al nombre canónico del contador.
func (s *Store) Resolve(key string) (string, bool) {
	lookup := normalize(key)
	if lookup == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if canonical, ok := s.aliasIndex[lookup]; ok {
		return canonical, true
	}
	if canonical, ok := s.nameIndex[lookup]; ok {
		return canonical, true
	}
	return "", false
}

// Get devuelve una copia del contador al que resuelva la clave.
func (s *Store) Get(key string) (*domain.Counter, bool) {
	canonical, ok := s.Resolve(key)
	if !ok {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counter, ok := s.counters[canonical]
	if !ok {
		return nil, false
	}
	return cloneCounter(counter), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counters)
}

// Flush fuerza un guardado; se llama una última vez en el apagado.
func (s *Store) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked(ctx)
}

// rebuildIndexLocked reconstruye los índices completos desde la tabla tras
// cada mutación estructural, en vez de parchearlos en sitio. Los índices son
// una vista derivada, nunca la fuente de verdad.
func (s *Store) rebuildIndexLocked() {
	s.nameIndex, s.aliasIndex = buildIndexes(s.counters)
}

func buildIndexes(counters map[string]*domain.Counter) (names, aliases map[string]string) {
	names = make(map[string]string, len(counters))
	aliases = make(map[string]string)
	for canonical, c := range counters {
		key := normalize(canonical)
		if key == "" {
			continue
		}
		names[key] = canonical
		for _, alias := range c.Aliases {
			aliasKey := normalize(alias)
			if aliasKey == "" || aliasKey == key {
				continue
			}
			aliases[aliasKey] = canonical
		}
	}
	return names, aliases
}

// persistLocked escribe la tabla entera. Si el guardado falla, la memoria
// queda por delante del disco hasta el siguiente guardado que funcione; el
// fallo se registra y no se propaga.
func (s *Store) persistLocked(ctx context.Context) {
	if s.repo == nil {
		return
	}
	snapshot := make(map[string]*domain.Counter, len(s.counters))
	for name, c := range s.counters {
		snapshot[name] = cloneCounter(c)
	}
	if err := s.repo.Save(ctx, snapshot); err != nil {
		s.log.Error("counters: no se pudo guardar la tabla", "error", err)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func cloneCounter(c *domain.Counter) *domain.Counter {
	if c == nil {
		return nil
	}
	copied := *c
	copied.Aliases = append([]string(nil), c.Aliases...)
	return &copied
}
