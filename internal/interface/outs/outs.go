// Package outs enruta las respuestas del bot hacia la plataforma de la que
// vino el mensaje. Cada adapter (Twitch, Kick, la consola web) se registra
// como Sender de su plataforma; el resto del código solo conoce el
// OutgoingMessagePort del dominio.
package outs

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"cntBot/internal/domain"
)

// Sender es lo que implementa cada adapter de salida.
type Sender interface {
	SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error
}

// MultiSender reparte por plataforma. Los adapters pueden registrarse y
// darse de baja en caliente; un envío a una plataforma sin sender es un
// error del llamador, no un descarte silencioso.
type MultiSender struct {
	mu      sync.RWMutex
	senders map[domain.Platform]Sender
}

func NewMultiSender() *MultiSender {
	return &MultiSender{
		senders: make(map[domain.Platform]Sender),
	}
}

func (m *MultiSender) Register(platform domain.Platform, sender Sender) {
	if m == nil || sender == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.senders[platform] = sender
}

func (m *MultiSender) Unregister(platform domain.Platform) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.senders, platform)
}

// Platforms devuelve las plataformas con sender registrado, ordenadas.
func (m *MultiSender) Platforms() []domain.Platform {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	platforms := make([]domain.Platform, 0, len(m.senders))
	for platform := range m.senders {
		platforms = append(platforms, platform)
	}
	slices.Sort(platforms)
	return platforms
}

func (m *MultiSender) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	if m == nil {
		return fmt.Errorf("no hay multi sender configurado")
	}
	m.mu.RLock()
	sender, ok := m.senders[platform]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no hay sender registrado para la plataforma %s", platform)
	}

	return sender.SendMessage(ctx, platform, channelID, text)
}

var _ domain.OutgoingMessagePort = (*MultiSender)(nil)
