package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cntBot/internal/domain"
	"cntBot/internal/usecase/counters"
)

// statsWindow es la ventana que miran «/cnt stats» y el top de actividad.
const statsWindow = 7 * 24 * time.Hour

// CntCommand administra los contadores de palabras desde el chat: altas,
// bajas, listado, estadísticas y los interruptores de aviso y voz.
type CntCommand struct {
	store    *counters.Store
	policy   *counters.Policy
	journal  domain.CounterJournal
	settings domain.SettingsRepository
	admins   AdminResolver
}

func NewCntCommand(
	store *counters.Store,
	policy *counters.Policy,
	journal domain.CounterJournal,
	settings domain.SettingsRepository,
	admins AdminResolver,
) *CntCommand {
	return &CntCommand{
		store:    store,
		policy:   policy,
		journal:  journal,
		settings: settings,
		admins:   admins,
	}
}

func (c *CntCommand) Name() string {
	return "cnt"
}

func (c *CntCommand) Aliases() []string {
	return []string{"contador"}
}

func (c *CntCommand) SupportsPlatform(domain.Platform) bool {
	return true
}

func (c *CntCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	if c.store == nil || c.policy == nil {
		return nil
	}
	if len(cmdCtx.Args) == 0 {
		return c.usage(ctx, cmdCtx)
	}

	sub := strings.ToLower(cmdCtx.Args[0])
	args := cmdCtx.Args[1:]

	switch sub {
	case "add":
		return c.handleAdd(ctx, cmdCtx, args)
	case "del", "delete":
		return c.handleDelete(ctx, cmdCtx, args)
	case "list", "ls":
		return c.handleList(ctx, cmdCtx)
	case "stats":
		return c.handleStats(ctx, cmdCtx, args)
	case "notify":
		return c.handleNotify(ctx, cmdCtx, args)
	case "speech":
		return c.handleSpeech(ctx, cmdCtx, args)
	default:
		return c.usage(ctx, cmdCtx)
	}
}

func (c *CntCommand) handleAdd(ctx context.Context, cmdCtx *Context, args []string) error {
	if len(args) == 0 {
		return cmdCtx.Reply(ctx, "Uso: /cnt add <nombre> [alias ...]")
	}

	name := args[0]
	counter, created, err := c.store.Add(ctx, name, args[1:])
	if err != nil {
		var conflict *counters.ConflictError
		if errors.As(err, &conflict) {
			return cmdCtx.Reply(ctx, fmt.Sprintf("⚠️ No pude añadir «%s»: %s",
				name, strings.Join(conflict.Conflicts, "; ")))
		}
		return cmdCtx.Reply(ctx, fmt.Sprintf("⚠️ %v", err))
	}

	actionMsg := "actualizado"
	if created {
		actionMsg = "añadido"
	}
	return cmdCtx.Reply(ctx, fmt.Sprintf("✅ Contador «%s» %s. Alias: %s",
		counter.Name, actionMsg, formatAliases(counter.Aliases)))
}

func (c *CntCommand) handleDelete(ctx context.Context, cmdCtx *Context, args []string) error {
	if len(args) == 0 {
		return cmdCtx.Reply(ctx, "Uso: /cnt del <nombre-o-alias>")
	}

	allowed, err := c.isAdmin(ctx, cmdCtx.Message)
	if err != nil || !allowed {
		return cmdCtx.Reply(ctx, "Solo los moderadores pueden borrar contadores.")
	}

	key := strings.Join(args, " ")
	name, err := c.store.Delete(ctx, key)
	if err != nil {
		if errors.Is(err, counters.ErrNotFound) {
			return cmdCtx.Reply(ctx, fmt.Sprintf("No encontré el contador «%s».", strings.TrimSpace(key)))
		}
		return cmdCtx.Reply(ctx, fmt.Sprintf("⚠️ %v", err))
	}
	return cmdCtx.Reply(ctx, fmt.Sprintf("🗑️ Contador «%s» eliminado.", name))
}

func (c *CntCommand) handleList(ctx context.Context, cmdCtx *Context) error {
	list := c.store.List()
	if len(list) == 0 {
		return cmdCtx.Reply(ctx, "No hay contadores todavía. Usa /cnt add <nombre> [alias ...]")
	}

	entries := make([]string, 0, len(list))
	for _, counter := range list {
		entry := fmt.Sprintf("«%s»: %d", counter.Name, counter.Count)
		if len(counter.Aliases) > 0 {
			entry += fmt.Sprintf(" (alias: %s)", strings.Join(counter.Aliases, ", "))
		}
		entries = append(entries, entry)
	}
	return cmdCtx.Reply(ctx, "📊 Contadores: "+strings.Join(entries, " | "))
}

func (c *CntCommand) handleStats(ctx context.Context, cmdCtx *Context, args []string) error {
	if c.journal == nil {
		return cmdCtx.Reply(ctx, "Las estadísticas no están disponibles en esta instalación.")
	}

	since := time.Now().UTC().Add(-statsWindow)

	if len(args) == 0 {
		top, err := c.journal.TopCounters(ctx, since, 5)
		if err != nil {
			return cmdCtx.Reply(ctx, fmt.Sprintf("⚠️ %v", err))
		}
		if len(top) == 0 {
			return cmdCtx.Reply(ctx, "Sin actividad en los últimos 7 días.")
		}
		entries := make([]string, 0, len(top))
		for _, activity := range top {
			entries = append(entries, fmt.Sprintf("«%s» ×%d", activity.Counter, activity.Hits))
		}
		return cmdCtx.Reply(ctx, "📈 Últimos 7 días: "+strings.Join(entries, ", "))
	}

	key := strings.Join(args, " ")
	counter, ok := c.store.Get(key)
	if !ok {
		return cmdCtx.Reply(ctx, fmt.Sprintf("No encontré el contador «%s».", strings.TrimSpace(key)))
	}

	hits, err := c.journal.CountSince(ctx, counter.Name, since)
	if err != nil {
		return cmdCtx.Reply(ctx, fmt.Sprintf("⚠️ %v", err))
	}
	return cmdCtx.Reply(ctx, fmt.Sprintf("📈 «%s»: %d menciones en los últimos 7 días (total: %d).",
		counter.Name, hits, counter.Count))
}

func (c *CntCommand) handleNotify(ctx context.Context, cmdCtx *Context, args []string) error {
	enabled, ok := parseOnOff(args)
	if !ok {
		return cmdCtx.Reply(ctx, "Uso: /cnt notify on|off")
	}

	allowed, err := c.isAdmin(ctx, cmdCtx.Message)
	if err != nil || !allowed {
		return cmdCtx.Reply(ctx, "Solo los moderadores pueden cambiar los avisos.")
	}

	c.policy.SetNotifyOnIncrement(enabled)
	c.saveSetting(ctx, domain.SettingNotifyOnIncrement, enabled)

	if enabled {
		return cmdCtx.Reply(ctx, "🔊 Aviso de incrementos activado.")
	}
	return cmdCtx.Reply(ctx, "🔇 Aviso de incrementos desactivado. El conteo sigue en silencio.")
}

func (c *CntCommand) handleSpeech(ctx context.Context, cmdCtx *Context, args []string) error {
	enabled, ok := parseOnOff(args)
	if !ok {
		return cmdCtx.Reply(ctx, "Uso: /cnt speech on|off")
	}

	allowed, err := c.isAdmin(ctx, cmdCtx.Message)
	if err != nil || !allowed {
		return cmdCtx.Reply(ctx, "Solo los moderadores pueden cambiar la lectura en voz alta.")
	}

	c.policy.SetSpeechEnabled(enabled)
	c.saveSetting(ctx, domain.SettingSpeechEnabled, enabled)

	if enabled {
		return cmdCtx.Reply(ctx, "🗣️ Lectura en voz alta activada.")
	}
	return cmdCtx.Reply(ctx, "Lectura en voz alta desactivada.")
}

func (c *CntCommand) usage(ctx context.Context, cmdCtx *Context) error {
	return cmdCtx.Reply(ctx, "Uso: /cnt add <nombre> [alias ...] | /cnt del <nombre-o-alias> | /cnt list | /cnt stats [nombre] | /cnt notify on|off | /cnt speech on|off")
}

// isAdmin falla cerrado: sin resolver, o con error del resolver, la
// operación restringida se deniega.
func (c *CntCommand) isAdmin(ctx context.Context, msg domain.Message) (bool, error) {
	if c.admins == nil {
		return false, nil
	}
	return c.admins.IsAdmin(ctx, msg)
}

func (c *CntCommand) saveSetting(ctx context.Context, key string, enabled bool) {
	if c.settings == nil {
		return
	}
	value := "false"
	if enabled {
		value = "true"
	}
	// best-effort: el ajuste en memoria ya quedó aplicado
	_ = c.settings.SetSetting(ctx, key, value)
}

func formatAliases(aliases []string) string {
	if len(aliases) == 0 {
		return "ninguno"
	}
	return strings.Join(aliases, ", ")
}

func parseOnOff(args []string) (enabled, ok bool) {
	if len(args) != 1 {
		return false, false
	}
	switch strings.ToLower(args[0]) {
	case "on":
		return true, true
	case "off":
		return false, true
	}
	return false, false
}
