package domain

type Platform string

const (
	PlatformTwitch Platform = "twitch"
	PlatformKick   Platform = "kick"
	// PlatformWeb es la consola local servida por el servidor WS.
	PlatformWeb Platform = "web"
)

type Message struct {
	Platform  Platform
	ChannelID string
	UserID    string
	Username  string
	Text      string
	IsPrivate bool

	// IsSelf marca los mensajes emitidos por la propia cuenta del bot
	// (cuando el adapter conoce la identidad del bot).
	IsSelf bool

	// Flags que vienen de la plataforma (los rellenamos en el adapter)
	IsPlatformOwner bool
	IsPlatformAdmin bool
	IsPlatformMod   bool
	IsPlatformVip   bool
}
