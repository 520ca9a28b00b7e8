package domain

import (
	"context"
	"time"
)

// Counter es un contador de palabras: cada mensaje que contenga su nombre
// o alguno de sus alias como subcadena suma una mención.
type Counter struct {
	Name    string
	Count   int
	Aliases []string
}

// CounterRepository persiste la tabla completa de contadores.
type CounterRepository interface {
	Load(ctx context.Context) (map[string]*Counter, error)
	Save(ctx context.Context, counters map[string]*Counter) error
}

// IncrementRecord es una fila del diario de incrementos: qué contador subió,
// con qué patrón y desde qué mensaje.
type IncrementRecord struct {
	Counter   string
	Pattern   string
	Platform  Platform
	ChannelID string
	Username  string
	Value     int
	CreatedAt time.Time
}

// CounterActivity agrega menciones por contador dentro de una ventana.
type CounterActivity struct {
	Counter string
	Hits    int
}

// CounterJournal registra cada incremento aplicado y responde consultas de
// actividad. Es best-effort: sus fallos nunca afectan a la tabla en memoria.
type CounterJournal interface {
	RecordIncrements(ctx context.Context, records []IncrementRecord) error
	TopCounters(ctx context.Context, since time.Time, limit int) ([]CounterActivity, error)
	CountSince(ctx context.Context, counter string, since time.Time) (int, error)
}
