package notifications

import (
	"context"
	"strconv"
	"strings"
	"time"

	kickchatwrapper "github.com/johanvandegriff/kick-chat-wrapper"

	"cntBot/internal/domain"
	"cntBot/internal/infrastructure/logger"
)

// EventLogger recoge los eventos del chatroom de Kick que no son chat normal
// (subs, tips, regalos). Todo queda en el log estructurado; si hay
// repositorio, también en la base para revisarlo desde la consola.
type EventLogger struct {
	repo domain.NotificationRepository
	log  *logger.Logger
	now  func() time.Time
}

func NewEventLogger(repo domain.NotificationRepository, log *logger.Logger) *EventLogger {
	if log == nil {
		log = logger.NewNop()
	}
	return &EventLogger{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// HandleKickMessage registra los mensajes del websocket de Kick que no son
// chat normal. Se engancha como EventHandler del adapter.
func (l *EventLogger) HandleKickMessage(msg kickchatwrapper.ChatMessage) {
	eventType := strings.TrimSpace(msg.Type)
	if strings.EqualFold(eventType, "chat") || strings.EqualFold(eventType, "message") {
		return
	}

	l.log.Info("kick-events",
		"event_type", eventType,
		"chatroom_id", msg.ChatroomID,
		"username", msg.Sender.Username,
		"timestamp", l.now().UTC().Format(time.RFC3339Nano),
	)

	if l.repo == nil {
		return
	}

	notification := &domain.Notification{
		Type:     classify(eventType),
		Platform: domain.PlatformKick,
		Username: msg.Sender.Username,
		Message:  msg.Content,
		Metadata: map[string]string{
			"event_type":  eventType,
			"chatroom_id": strconv.Itoa(msg.ChatroomID),
		},
		CreatedAt: l.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := l.repo.SaveNotification(ctx, notification); err != nil {
		l.log.Warn("kick-events: no se pudo guardar la notificación", "error", err)
	}
}

func classify(eventType string) domain.NotificationType {
	lower := strings.ToLower(eventType)
	switch {
	case strings.Contains(lower, "sub"):
		return domain.NotificationSubscription
	case strings.Contains(lower, "tip"), strings.Contains(lower, "donation"), strings.Contains(lower, "gift"):
		return domain.NotificationDonation
	default:
		return domain.NotificationGeneric
	}
}
