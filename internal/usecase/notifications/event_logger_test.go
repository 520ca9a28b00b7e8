package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kickchatwrapper "github.com/johanvandegriff/kick-chat-wrapper"

	"cntBot/internal/domain"
	"cntBot/internal/infrastructure/logger"
)

type recordingNotifications struct {
	saved []*domain.Notification
}

func (r *recordingNotifications) SaveNotification(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	r.saved = append(r.saved, n)
	return n, nil
}

func (r *recordingNotifications) ListNotifications(ctx context.Context, limit int) ([]*domain.Notification, error) {
	return r.saved, nil
}

func kickEvent(eventType, username, content string) kickchatwrapper.ChatMessage {
	msg := kickchatwrapper.ChatMessage{
		Type:       eventType,
		ChatroomID: 42,
		Content:    content,
	}
	msg.Sender.Username = username
	return msg
}

func TestEventLoggerIgnoresPlainChat(t *testing.T) {
	repo := &recordingNotifications{}
	eventLogger := NewEventLogger(repo, logger.NewNop())

	eventLogger.HandleKickMessage(kickEvent("chat", "ana", "hola"))
	eventLogger.HandleKickMessage(kickEvent("message", "ana", "hola"))

	assert.Empty(t, repo.saved)
}

func TestEventLoggerPersistsPlatformEvents(t *testing.T) {
	repo := &recordingNotifications{}
	eventLogger := NewEventLogger(repo, logger.NewNop())

	eventLogger.HandleKickMessage(kickEvent("Subscription", "ana", ""))

	require.Len(t, repo.saved, 1)
	saved := repo.saved[0]
	assert.Equal(t, domain.NotificationSubscription, saved.Type)
	assert.Equal(t, domain.PlatformKick, saved.Platform)
	assert.Equal(t, "ana", saved.Username)
	assert.Equal(t, "42", saved.Metadata["chatroom_id"])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		eventType string
		want      domain.NotificationType
	}{
		{eventType: "Subscription", want: domain.NotificationSubscription},
		{eventType: "GiftedSubscription", want: domain.NotificationSubscription},
		{eventType: "tip", want: domain.NotificationDonation},
		{eventType: "StreamHost", want: domain.NotificationGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.eventType), tt.eventType)
	}
}

func TestEventLoggerWithoutRepoOnlyLogs(t *testing.T) {
	eventLogger := NewEventLogger(nil, logger.NewNop())

	// sin repositorio no debe tocar nada ni fallar
	eventLogger.HandleKickMessage(kickEvent("tip", "leo", "5 USD"))
}
