package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	TwitchUsername string
	TwitchToken    string
	TwitchChannels []string
	TwitchClientId string

	KickToken             string
	KickBroadcasterUserId string
	KickChatroomId        string
	KickBotUserId         string

	WSAddr  string
	DataDir string
	LogMode string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TwitchUsername: os.Getenv("TWITCH_BOT_USERNAME"),
		TwitchToken:    os.Getenv("TWITCH_BOT_ACCESS_TOKEN"),
		TwitchChannels: splitChannels(os.Getenv("TWITCH_BOT_CHANNELS")),
		TwitchClientId: os.Getenv("TWITCH_CLIENT_ID"),

		KickToken:             os.Getenv("KICK_ACCESS_TOKEN"),
		KickBroadcasterUserId: os.Getenv("KICK_BROADCASTER_USER_ID"),
		KickChatroomId:        os.Getenv("KICK_CHATROOM_ID"),
		KickBotUserId:         os.Getenv("KICK_BOT_USER_ID"),

		WSAddr:  envOr("WS_ADDR", ":8080"),
		DataDir: envOr("DATA_DIR", "./data"),
		LogMode: envOr("LOG_MODE", "dev"),
	}

	if cfg.TwitchUsername == "" || cfg.TwitchToken == "" {
		log.Println("Advertencia: No se encontraron variables necesarias de Twitch")
	}

	return cfg, nil
}

// HasTwitch indica si hay credenciales suficientes para conectar a Twitch.
func (c *Config) HasTwitch() bool {
	return c.TwitchUsername != "" && c.TwitchToken != "" && len(c.TwitchChannels) > 0
}

// HasKick indica si hay datos suficientes para escuchar el chat de Kick.
func (c *Config) HasKick() bool {
	return c.KickChatroomId != ""
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func splitChannels(raw string) []string {
	var channels []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			channels = append(channels, part)
		}
	}
	return channels
}
