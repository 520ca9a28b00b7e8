package commands

import "cntBot/internal/domain"

// CommandDescriptor expone metadatos de cada comando interno para mostrarlos
// en la consola web.
type CommandDescriptor struct {
	Name        string                     `json:"name"`
	Aliases     []string                   `json:"aliases,omitempty"`
	Platforms   []domain.Platform          `json:"platforms,omitempty"`
	Description string                     `json:"description"`
	Usage       string                     `json:"usage"`
	Permissions []domain.CommandAccessRole `json:"permissions,omitempty"`
}

// BuiltinCommandCatalog describe los comandos que vienen incluidos en el bot.
func BuiltinCommandCatalog() []CommandDescriptor {
	return []CommandDescriptor{
		{
			Name:        "ping",
			Platforms:   []domain.Platform{domain.PlatformTwitch, domain.PlatformKick, domain.PlatformWeb},
			Description: "Responde con «pong» para probar la conexión del bot.",
			Usage:       "/ping",
			Permissions: []domain.CommandAccessRole{domain.CommandAccessEveryone},
		},
		{
			Name:        "cnt",
			Aliases:     []string{"contador"},
			Platforms:   []domain.Platform{domain.PlatformTwitch, domain.PlatformKick, domain.PlatformWeb},
			Description: "Administra los contadores de palabras: altas, bajas, listado y estadísticas.",
			Usage:       "/cnt add <nombre> [alias ...] | /cnt del <nombre-o-alias> | /cnt list | /cnt stats [nombre] | /cnt notify on|off | /cnt speech on|off",
			Permissions: []domain.CommandAccessRole{domain.CommandAccessEveryone},
		},
	}
}
