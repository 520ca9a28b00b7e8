package events

import (
	"time"

	"cntBot/internal/domain"
)

// ChatMessageDTO describe el payload que viaja hacia la consola web.
type ChatMessageDTO struct {
	Platform        string `json:"platform"`
	ChannelID       string `json:"channel_id"`
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	Text            string `json:"text"`
	IsPrivate       bool   `json:"is_private"`
	IsSelf          bool   `json:"is_self"`
	IsPlatformOwner bool   `json:"is_platform_owner"`
	IsPlatformAdmin bool   `json:"is_platform_admin"`
	IsPlatformMod   bool   `json:"is_platform_mod"`
	IsPlatformVip   bool   `json:"is_platform_vip"`
	Timestamp       string `json:"timestamp"`
}

// NewChatMessageDTO crea un DTO serializable a partir de domain.Message.
func NewChatMessageDTO(msg domain.Message) ChatMessageDTO {
	return ChatMessageDTO{
		Platform:        string(msg.Platform),
		ChannelID:       msg.ChannelID,
		UserID:          msg.UserID,
		Username:        msg.Username,
		Text:            msg.Text,
		IsPrivate:       msg.IsPrivate,
		IsSelf:          msg.IsSelf,
		IsPlatformOwner: msg.IsPlatformOwner,
		IsPlatformAdmin: msg.IsPlatformAdmin,
		IsPlatformMod:   msg.IsPlatformMod,
		IsPlatformVip:   msg.IsPlatformVip,
		Timestamp:       time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// CounterIncrementDTO es un incremento aplicado, uno por contador y mensaje.
type CounterIncrementDTO struct {
	Counter   string `json:"counter"`
	Pattern   string `json:"pattern"`
	Count     int    `json:"count"`
	Platform  string `json:"platform"`
	ChannelID string `json:"channel_id"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
}

func NewCounterIncrementDTO(msg domain.Message, counter, pattern string, count int) CounterIncrementDTO {
	return CounterIncrementDTO{
		Counter:   counter,
		Pattern:   pattern,
		Count:     count,
		Platform:  string(msg.Platform),
		ChannelID: msg.ChannelID,
		Username:  msg.Username,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// MilestoneDTO anuncia que un contador tocó un valor señalado. Se publica
// siempre que se detecta, aunque el aviso en chat esté apagado.
type MilestoneDTO struct {
	Counter   string `json:"counter"`
	Count     int    `json:"count"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func NewMilestoneDTO(counter string, count int, text string) MilestoneDTO {
	return MilestoneDTO{
		Counter:   counter,
		Count:     count,
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// SpeechSpokenDTO cierra el ciclo de una lectura en voz alta.
type SpeechSpokenDTO struct {
	Text       string `json:"text"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	FinishedAt string `json:"finished_at"`
}

func NewSpeechSpokenDTO(text string, err error) SpeechSpokenDTO {
	payload := SpeechSpokenDTO{
		Text:       text,
		OK:         err == nil,
		FinishedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err != nil {
		payload.Error = err.Error()
	}
	return payload
}
