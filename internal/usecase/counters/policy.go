package counters

import "sync"

// Policy agrupa los ajustes de runtime del conteo automático. Los valores
// iniciales vienen del fichero de configuración y de los ajustes guardados;
// los comandos «/cnt notify» y «/cnt speech» los cambian en caliente.
type Policy struct {
	mu                sync.RWMutex
	notifyOnIncrement bool
	milestonesEnabled bool
	speechEnabled     bool
}

func NewPolicy(notifyOnIncrement, milestonesEnabled, speechEnabled bool) *Policy {
	return &Policy{
		notifyOnIncrement: notifyOnIncrement,
		milestonesEnabled: milestonesEnabled,
		speechEnabled:     speechEnabled,
	}
}

// NotifyOnIncrement indica si los incrementos se anuncian en el chat.
// Apagado, el conteo sigue funcionando en silencio.
func (p *Policy) NotifyOnIncrement() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.notifyOnIncrement
}

func (p *Policy) SetNotifyOnIncrement(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifyOnIncrement = enabled
}

func (p *Policy) MilestonesEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.milestonesEnabled
}

func (p *Policy) SetMilestonesEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.milestonesEnabled = enabled
}

// SpeechEnabled indica si los hitos se leen en voz alta además de anunciarse.
func (p *Policy) SpeechEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.speechEnabled
}

func (p *Policy) SetSpeechEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speechEnabled = enabled
}
