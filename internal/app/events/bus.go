package events

import (
	"sync"

	"cntBot/internal/infrastructure/logger"
)

const (
	TopicChatMessage      = "chat:message"
	TopicCounterUpdate    = "counters:update"
	TopicCounterMilestone = "counters:milestone"
	TopicAppError         = "app:error"
	TopicSpeechSpoken     = "speech:spoken"

	defaultBufferSize = 128
)

type Bus struct {
	log *logger.Logger

	mu        sync.RWMutex
	subs      map[string]map[int]chan any
	nextSubID int
	closed    bool

	dropMu     sync.Mutex
	dropCounts map[string]uint64
}

func NewBus(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.NewNop()
	}
	return &Bus{
		log:        log,
		subs:       make(map[string]map[int]chan any),
		dropCounts: make(map[string]uint64),
	}
}

// Publish entrega el payload a cada suscriptor del topic sin bloquear: si un
// canal está lleno, se descarta y se cuenta. Los envíos se hacen bajo el
// RLock; cancelar una suscripción cierra su canal bajo el lock de escritura,
// así que nunca puede cerrarse un canal a mitad de un envío.
func (b *Bus) Publish(topic string, payload any) {
	if topic == "" {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs[topic] {
		select {
		case ch <- payload:
		default:
			b.recordDrop(topic)
		}
	}
}

func (b *Bus) Subscribe(topic string) (<-chan any, func()) {
	ch := make(chan any, defaultBufferSize)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[string]map[int]chan any)
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan any)
	}
	id := b.nextSubID
	b.nextSubID++
	b.subs[topic][id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subs[topic]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.subs, topic)
			}
		}
		close(ch)
	}

	return ch, unsubscribe
}

// Close deja el bus mudo: las publicaciones posteriores se descartan. Los
// canales de los suscriptores no se cierran aquí; cada suscriptor termina
// por su propio contexto.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string]map[int]chan any)
}

func (b *Bus) recordDrop(topic string) {
	b.dropMu.Lock()
	defer b.dropMu.Unlock()
	if b.dropCounts == nil {
		b.dropCounts = make(map[string]uint64)
	}
	b.dropCounts[topic]++
	if b.dropCounts[topic]%100 == 1 {
		b.log.Warn("events: descartando mensajes", "topic", topic, "drops", b.dropCounts[topic])
	}
}
