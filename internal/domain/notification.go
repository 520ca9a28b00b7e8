package domain

import (
	"context"
	"time"
)

type NotificationType string

const (
	NotificationSubscription NotificationType = "subscription"
	NotificationDonation     NotificationType = "donation"
	NotificationGeneric      NotificationType = "generic"
)

// Notification es un evento de plataforma que no es chat normal (subs,
// regalos, etc.), conservado para revisarlo después desde la consola.
type Notification struct {
	ID        int64
	Type      NotificationType
	Platform  Platform
	Username  string
	Message   string
	Metadata  map[string]string
	CreatedAt time.Time
}

type NotificationRepository interface {
	SaveNotification(ctx context.Context, notification *Notification) (*Notification, error)
	ListNotifications(ctx context.Context, limit int) ([]*Notification, error)
}
