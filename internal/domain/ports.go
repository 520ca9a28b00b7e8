package domain

import "context"

type OutgoingMessagePort interface {
	SendMessage(ctx context.Context, platform Platform, channelID, text string) error
}

// SettingsRepository guarda ajustes de runtime clave/valor que sobreviven
// reinicios. GetSetting devuelve "" si la clave no existe.
type SettingsRepository interface {
	SetSetting(ctx context.Context, key, value string) error
	GetSetting(ctx context.Context, key string) (string, error)
}

// Claves de ajustes persistidos.
const (
	SettingNotifyOnIncrement = "notify_on_increment"
	SettingSpeechEnabled     = "speech_enabled"
)

// TwitchIdentityService resuelve la identidad de la cuenta del bot vía Helix.
type TwitchIdentityService interface {
	BotUser(ctx context.Context) (id, login string, err error)
}
