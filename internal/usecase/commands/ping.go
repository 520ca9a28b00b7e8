package commands

import (
	"context"

	"cntBot/internal/domain"
)

type PingCommand struct{}

func NewPingCommand() *PingCommand {
	return &PingCommand{}
}

func (c *PingCommand) Name() string {
	return "ping"
}

func (c *PingCommand) Aliases() []string {
	return []string{}
}

func (c *PingCommand) SupportsPlatform(p domain.Platform) bool {
	return p == domain.PlatformKick || p == domain.PlatformTwitch || p == domain.PlatformWeb
}

func (c *PingCommand) Handle(ctx context.Context, cmdCtx *Context) error {
	return cmdCtx.Reply(ctx, "pong desde "+string(cmdCtx.Message.Platform))
}
