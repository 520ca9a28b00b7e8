// Package twitchadapter adapter for twitch
package twitchadapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/adeithe/go-twitch/irc"

	"cntBot/internal/domain"
	"cntBot/internal/infrastructure/logger"
)

type Config struct {
	Username   string
	OAuthToken string
	Channels   []string

	// BotUserID es el ID numérico de la cuenta del bot resuelto vía Helix.
	// Puede quedar vacío: entonces IsSelf se decide solo por el login.
	BotUserID string

	Log *logger.Logger
}

type MessageHandler func(ctx context.Context, msg domain.Message) error

type Adapter struct {
	cfg Config
	log *logger.Logger

	mu        sync.RWMutex
	handler   MessageHandler
	conn      *irc.Conn
	botUserID string
}

func NewAdapter(cfg Config) *Adapter {
	log := cfg.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Adapter{cfg: cfg, log: log, botUserID: cfg.BotUserID}
}

func (a *Adapter) SetHandler(h MessageHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
}

// SetBotUserID fija el ID del bot cuando la resolución Helix llega después
// de construir el adapter.
func (a *Adapter) SetBotUserID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.botUserID = id
}

func (a *Adapter) Start(ctx context.Context) error {
	if len(a.cfg.Channels) == 0 {
		return errors.New("twitch: no hay canales configurados")
	}
	if a.cfg.Username == "" || a.cfg.OAuthToken == "" {
		return errors.New("twitch: username u oauth token vacíos")
	}

	// Una sola conexión simple, sin sharding
	conn := &irc.Conn{}

	if err := conn.SetLogin(a.cfg.Username, a.cfg.OAuthToken); err != nil {
		return fmt.Errorf("twitch: SetLogin: %w", err)
	}

	conn.OnMessage(func(cm irc.ChatMessage) {
		a.mu.RLock()
		handler := a.handler
		a.mu.RUnlock()
		if handler == nil {
			return
		}

		msg := a.mapChatMessageToDomain(cm)
		if err := handler(ctx, msg); err != nil {
			a.log.Error("twitch: error en handler", "error", err)
		}
	})

	if err := conn.Connect(); err != nil {
		return fmt.Errorf("twitch: Connect: %w", err)
	}

	if err := conn.Join(a.cfg.Channels...); err != nil {
		return fmt.Errorf("twitch: Join: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	a.log.Info("twitch: conectado", "username", a.cfg.Username, "channels", a.cfg.Channels)

	<-ctx.Done()

	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
	}
	a.mu.Unlock()

	return ctx.Err()
}

func (a *Adapter) SendMessage(ctx context.Context, platform domain.Platform, channelID, text string) error {
	if platform != domain.PlatformTwitch {
		return fmt.Errorf("twitch adapter no soporta plataforma %s", platform)
	}

	a.mu.RLock()
	conn := a.conn
	a.mu.RUnlock()

	if conn == nil || !conn.IsConnected() {
		return errors.New("twitch: conexión no inicializada o cerrada")
	}

	a.log.Debug("twitch: say", "channel", channelID, "text", text)
	return conn.Say(channelID, text)
}

func (a *Adapter) mapChatMessageToDomain(cm irc.ChatMessage) domain.Message {
	sender := cm.Sender
	senderID := strconv.FormatInt(sender.ID, 10)

	a.mu.RLock()
	botUserID := a.botUserID
	a.mu.RUnlock()

	// IsSelf por login siempre; por ID solo si Helix lo resolvió
	isSelf := strings.EqualFold(sender.Username, a.cfg.Username)
	if !isSelf && botUserID != "" {
		isSelf = senderID == botUserID
	}

	return domain.Message{
		Platform:  domain.PlatformTwitch,
		ChannelID: cm.Channel,
		UserID:    senderID,
		Username:  sender.DisplayName,
		Text:      cm.Text,

		IsPrivate: false,
		IsSelf:    isSelf,

		IsPlatformOwner: sender.IsBroadcaster,
		IsPlatformAdmin: sender.IsBroadcaster || sender.IsModerator,
		IsPlatformMod:   sender.IsModerator,
		IsPlatformVip:   sender.IsVIP,
	}
}

var _ domain.OutgoingMessagePort = (*Adapter)(nil)
