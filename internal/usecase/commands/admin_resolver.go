package commands

import (
	"context"

	"cntBot/internal/domain"
)

// AdminResolver decide si el autor de un mensaje puede ejecutar operaciones
// restringidas como borrar contadores. Sin resolver, la respuesta es no.
type AdminResolver interface {
	IsAdmin(ctx context.Context, msg domain.Message) (bool, error)
}

// PlatformAdminResolver decide con los flags que ya trae el mensaje desde su
// adapter. La consola local cuenta como administrador: solo la usa quien
// tiene el proceso en su máquina.
type PlatformAdminResolver struct{}

func NewPlatformAdminResolver() *PlatformAdminResolver {
	return &PlatformAdminResolver{}
}

func (r *PlatformAdminResolver) IsAdmin(ctx context.Context, msg domain.Message) (bool, error) {
	if msg.IsPrivate {
		return true, nil
	}
	return msg.IsPlatformOwner || msg.IsPlatformAdmin || msg.IsPlatformMod, nil
}

var _ AdminResolver = (*PlatformAdminResolver)(nil)
