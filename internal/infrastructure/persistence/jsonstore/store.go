package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cntBot/internal/domain"
)

// Store guarda la tabla de contadores como un único documento JSON legible,
// pensado para poder revisarse o editarse a mano con el bot apagado.
type Store struct {
	path string
}

var _ domain.CounterRepository = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{path: path}
}

type document struct {
	Counters map[string]counterRecord `json:"counters"`
}

type counterRecord struct {
	Count   int      `json:"count"`
	Aliases []string `json:"aliases"`
}

// Load lee la tabla completa. Que el fichero no exista todavía no es un
// error: es el primer arranque y la tabla empieza vacía.
func (s *Store) Load(ctx context.Context) (map[string]*domain.Counter, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]*domain.Counter{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jsonstore: no se pudo leer «%s»: %w", s.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jsonstore: «%s» no es un JSON válido: %w", s.path, err)
	}

	table := make(map[string]*domain.Counter, len(doc.Counters))
	for name, record := range doc.Counters {
		table[name] = &domain.Counter{
			Name:    name,
			Count:   record.Count,
			Aliases: append([]string(nil), record.Aliases...),
		}
	}
	return table, nil
}

// Save reemplaza el documento entero con la tabla recibida.
func (s *Store) Save(ctx context.Context, table map[string]*domain.Counter) error {
	doc := document{Counters: make(map[string]counterRecord, len(table))}
	for name, c := range table {
		if c == nil {
			continue
		}
		aliases := c.Aliases
		if aliases == nil {
			aliases = []string{} // en disco siempre una lista, nunca null
		}
		doc.Counters[name] = counterRecord{Count: c.Count, Aliases: aliases}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("jsonstore: no se pudo crear el directorio «%s»: %w", dir, err)
		}
	}

	// primero un temporal en el mismo directorio y después el rename: si el
	// proceso muere a mitad de la escritura, el documento anterior queda
	// intacto en vez de un JSON truncado
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".counters-*.tmp")
	if err != nil {
		return fmt.Errorf("jsonstore: no se pudo crear el temporal para «%s»: %w", s.path, err)
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonstore: no se pudo escribir «%s»: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonstore: no se pudo cerrar el temporal de «%s»: %w", s.path, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("jsonstore: no se pudo reemplazar «%s»: %w", s.path, err)
	}
	return nil
}
