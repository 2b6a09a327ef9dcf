package channel

import (
	"context"

	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/platform"
)

// Sink receives the platform events an adapter decodes. Handler
// invocations run concurrently, one per event, with no ordering
// guarantee between events.
type Sink interface {
	HandleMessage(ctx context.Context, msg platform.Message)
	HandleReaction(ctx context.Context, reaction platform.Reaction)
}

// Adapter bridges one external transport (for example Discord) into the bot.
type Adapter interface {
	Name() string

	// Messenger returns the client handle for outbound platform calls.
	Messenger() platform.Messenger

	// Run connects to the transport and forwards events into sink until
	// ctx is done.
	Run(ctx context.Context, sink Sink) error
}
