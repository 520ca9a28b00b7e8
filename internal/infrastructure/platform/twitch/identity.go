package twitchinfra

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nicklaw5/helix/v2"

	"cntBot/internal/domain"
)

// HelixIdentityService resuelve vía Helix la identidad de la cuenta con la
// que el bot está autenticado. El conteo automático usa ese ID para ignorar
// los mensajes que escribe el propio bot.
type HelixIdentityService struct {
	client *helix.Client
}

// clientID: el de tu app de Twitch
// userAccessToken: el token del BOT (el mismo del chat, sin el prefijo "oauth:")
func NewHelixIdentityService(clientID, userAccessToken string) (domain.TwitchIdentityService, error) {
	client, err := helix.NewClient(&helix.Options{
		ClientID:        clientID,
		UserAccessToken: userAccessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("helix: NewClient: %w", err)
	}

	return &HelixIdentityService{client: client}, nil
}

// BotUser consulta GetUsers sin parámetros: Helix responde con el usuario
// dueño del token.
func (s *HelixIdentityService) BotUser(ctx context.Context) (id, login string, err error) {
	resp, err := s.client.GetUsers(&helix.UsersParams{})
	if err != nil {
		return "", "", fmt.Errorf("helix: GetUsers: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("helix: GetUsers failed (%d: %s) %s",
			resp.StatusCode, resp.Error, resp.ErrorMessage)
	}
	if len(resp.Data.Users) == 0 {
		return "", "", fmt.Errorf("helix: GetUsers no devolvió ningún usuario")
	}

	user := resp.Data.Users[0]
	return user.ID, user.Login, nil
}
