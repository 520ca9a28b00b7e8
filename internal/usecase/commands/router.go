package commands

import (
	"context"
	"strings"

	"cntBot/internal/domain"
)

type Router struct {
	prefix   string
	cmdIndex map[string]Command
}

func NewRouter(prefix string) *Router {
	if prefix == "" {
		prefix = "/"
	}
	return &Router{
		prefix:   prefix,
		cmdIndex: make(map[string]Command),
	}
}

func (r *Router) Register(cmd Command) {
	r.cmdIndex[strings.ToLower(cmd.Name())] = cmd
	for _, alias := range cmd.Aliases() {
		r.cmdIndex[strings.ToLower(alias)] = cmd
	}
}

// Handle ejecuta el comando del mensaje si lo hay. handled=false significa
// que el texto no es un comando conocido y sigue su curso normal (conteo
// automático incluido); un «/algo» sin registrar no recibe respuesta.
func (r *Router) Handle(ctx context.Context, msg domain.Message, out domain.OutgoingMessagePort) (bool, error) {
	cmd, rest, ok := r.match(msg.Text)
	if !ok {
		return false, nil
	}

	if !cmd.SupportsPlatform(msg.Platform) {
		return true, out.SendMessage(ctx, msg.Platform, msg.ChannelID, "Este comando no está disponible aquí.")
	}

	parts := strings.Fields(rest)
	ctxCmd := &Context{
		Message: msg,
		Out:     out,
		Raw:     rest,
		Args:    parts[1:],
	}

	return true, cmd.Handle(ctx, ctxCmd)
}

// Recognizes indica si el texto invoca un comando registrado. Es el filtro
// que mantiene los comandos fuera del conteo automático.
func (r *Router) Recognizes(text string) bool {
	_, _, ok := r.match(text)
	return ok
}

func (r *Router) Prefix() string {
	return r.prefix
}

func (r *Router) match(text string) (Command, string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || !strings.HasPrefix(text, r.prefix) {
		return nil, "", false
	}

	rest := strings.TrimPrefix(text, r.prefix)
	parts := strings.Fields(rest)
	if len(parts) == 0 {
		return nil, "", false
	}

	cmd, ok := r.cmdIndex[strings.ToLower(parts[0])]
	if !ok {
		return nil, "", false
	}
	return cmd, rest, true
}
