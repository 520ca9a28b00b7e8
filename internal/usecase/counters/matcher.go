package counters

import (
	"context"
	"slices"
	"strings"
)

// Hit describe un contador que un mensaje acaba de incrementar.
type Hit struct {
	Name    string // nombre canónico del contador
	Pattern string // nombre o alias que apareció en el texto
	Count   int    // conteo resultante tras el incremento
}

// SetCommandChecker registra el detector de comandos de gestión. Los mensajes
// que el router reconoce como comandos nunca pasan por el conteo automático.
func (s *Store) SetCommandChecker(fn func(string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isCommand = fn
}

// ScanMessage busca cada contador en el texto por subcadena, sin distinguir
// mayúsculas. Un contador suma como mucho una vez por mensaje aunque
// aparezcan varios de sus patrones; contadores distintos suman cada uno por
// su lado. Todos los incrementos del mensaje se guardan en un solo guardado.
func (s *Store) ScanMessage(ctx context.Context, text string) []Hit {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isCommand != nil && s.isCommand(text) {
		return nil
	}

	folded := strings.ToLower(text)

	var hits []Hit
	for canonical, c := range s.counters {
		patterns := make([]string, 0, len(c.Aliases)+1)
		patterns = append(patterns, canonical)
		patterns = append(patterns, c.Aliases...)

		for _, pattern := range patterns {
			p := normalize(pattern)
			if p == "" {
				continue
			}
			if strings.Contains(folded, p) {
				c.Count++
				hits = append(hits, Hit{Name: canonical, Pattern: pattern, Count: c.Count})
				break // como mucho un incremento por contador y mensaje
			}
		}
	}

	if len(hits) == 0 {
		return nil
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		return strings.Compare(a.Name, b.Name)
	})
	s.persistLocked(ctx)

	return hits
}
