package commands

import (
	"context"

	"cntBot/internal/domain"
)

type Command interface {
	Name() string
	Aliases() []string
	SupportsPlatform(p domain.Platform) bool
	Handle(ctx context.Context, c *Context) error
}

// Context lleva todo lo que un comando necesita para responder: el mensaje
// original, la salida hacia su plataforma y los argumentos ya troceados.
type Context struct {
	Message domain.Message
	Out     domain.OutgoingMessagePort

	Raw  string
	Args []string
}

// Reply contesta en el mismo canal del que vino el mensaje.
func (c *Context) Reply(ctx context.Context, text string) error {
	return c.Out.SendMessage(ctx, c.Message.Platform, c.Message.ChannelID, text)
}
