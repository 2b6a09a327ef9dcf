// Package watcher runs the per-message bundle-check workflow and the
// reaction-driven dismissal of the bot's replies.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/config"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/extract"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/platform"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/reply"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/trench"
)

const (
	placeholderText   = "🔍 Checking bundle data..."
	fetchFailedText   = "❌ Failed to fetch bundle data. Try again later."
	genericFailedText = "❌ An error occurred while processing the bundle data. Try again later."

	// DismissEmoji is the reaction offered on populated replies as the
	// sole affordance for deleting them.
	DismissEmoji = "🗑️"

	defaultErrorDisplayDelay = 10 * time.Second
	defaultDismissWindow     = 30 * time.Second
)

// ReportFetcher is the analytics dependency of the workflow.
type ReportFetcher interface {
	BundleReport(ctx context.Context, address string) (*trench.BundleReport, error)
	PageURL(address string) string
}

// Watcher reacts to scanner-bot messages by posting, populating, and
// later cleaning up bundle-analysis replies. One HandleMessage or
// HandleReaction invocation per event; invocations share no mutable
// state and may run concurrently.
type Watcher struct {
	client  platform.Messenger
	reports ReportFetcher
	sched   Scheduler
	log     *slog.Logger

	upstreamBotID      string
	environment        string
	developmentGuildID string
	errorDisplayDelay  time.Duration
	dismissWindow      time.Duration
}

// New wires a Watcher from its collaborators and timing/restriction
// config.
func New(client platform.Messenger, reports ReportFetcher, sched Scheduler, cfg config.WatcherConfig, upstreamBotID string, log *slog.Logger) *Watcher {
	if sched == nil {
		sched = NewScheduler()
	}
	if log == nil {
		log = slog.Default()
	}

	errorDisplayDelay := defaultErrorDisplayDelay
	if cfg.ErrorDisplaySeconds > 0 {
		errorDisplayDelay = time.Duration(cfg.ErrorDisplaySeconds) * time.Second
	}

	dismissWindow := defaultDismissWindow
	if cfg.DismissWindowSeconds > 0 {
		dismissWindow = time.Duration(cfg.DismissWindowSeconds) * time.Second
	}

	return &Watcher{
		client:             client,
		reports:            reports,
		sched:              sched,
		log:                log.With("component", "watcher"),
		upstreamBotID:      upstreamBotID,
		environment:        cfg.Environment,
		developmentGuildID: cfg.DevelopmentGuildID,
		errorDisplayDelay:  errorDisplayDelay,
		dismissWindow:      dismissWindow,
	}
}

// HandleMessage runs the bundle-check workflow for one incoming
// message: extract the contract address, post a placeholder reply,
// fetch the report, and edit the reply in place. Failures after the
// placeholder exists surface as a transient notice that deletes itself.
func (w *Watcher) HandleMessage(ctx context.Context, msg platform.Message) {
	if !w.guildAllowed(msg.GuildID) {
		return
	}
	if msg.AuthorID != w.upstreamBotID {
		return
	}

	address, ok := extract.ContractAddress(msg)
	if !ok {
		return
	}

	log := w.log.With("channel_id", msg.ChannelID, "message_id", msg.ID, "address", address)
	log.Info("Contract address detected")

	replyID, err := w.client.Reply(ctx, msg.ChannelID, msg.ID, placeholderText)
	if err != nil {
		// No placeholder was created, so there is nothing user-visible
		// to clean up.
		log.Error("Failed to post placeholder reply", "error", err)
		return
	}

	report, err := w.reports.BundleReport(ctx, address)
	if err != nil {
		log.Warn("Bundle report fetch failed", "error", err)
		w.showTransientFailure(ctx, msg.ChannelID, replyID, fetchFailedText, log)
		return
	}

	content, err := reply.Format(report, w.reports.PageURL(address))
	if err != nil {
		log.Warn("Bundle report formatting failed", "error", err)
		w.showTransientFailure(ctx, msg.ChannelID, replyID, genericFailedText, log)
		return
	}

	if err := w.client.Edit(ctx, msg.ChannelID, replyID, content); err != nil {
		if platform.IsNotFound(err) {
			log.Debug("Placeholder vanished before it could be populated")
			return
		}
		log.Error("Failed to populate reply", "error", err)
		w.showTransientFailure(ctx, msg.ChannelID, replyID, genericFailedText, log)
		return
	}

	if err := w.client.React(ctx, msg.ChannelID, replyID, DismissEmoji); err != nil {
		// The reply stands on its own without a dismiss affordance.
		log.Warn("Failed to attach dismiss reaction", "error", err)
		return
	}

	w.sched.AfterFunc(w.dismissWindow, func() {
		w.expireDismissReaction(msg.ChannelID, replyID, log)
	})

	log.Info("Posted bundle analysis", "reply_id", replyID, "ticker", report.Ticker)
}

// guildAllowed applies the environment restriction: in development mode
// only the configured development guild is processed.
func (w *Watcher) guildAllowed(guildID string) bool {
	if w.environment != config.EnvironmentDevelopment {
		return true
	}
	return guildID == w.developmentGuildID
}

// showTransientFailure overwrites the placeholder with a failure notice
// and removes it after the error-display delay. Nothing here may leave
// a permanent unexplained message behind.
func (w *Watcher) showTransientFailure(ctx context.Context, channelID, replyID, text string, log *slog.Logger) {
	if err := w.client.Edit(ctx, channelID, replyID, platform.ReplyContent{Content: text}); err != nil {
		if !platform.IsNotFound(err) {
			log.Error("Failed to show failure notice", "error", err)
		}
		return
	}

	if err := w.sched.Sleep(ctx, w.errorDisplayDelay); err != nil {
		return
	}

	if err := w.client.Delete(ctx, channelID, replyID); err != nil && !platform.IsNotFound(err) {
		log.Error("Failed to remove failure notice", "error", err)
	}
}

// expireDismissReaction removes the bot's own dismiss reaction once the
// reaction window closes. A vanished reply is a no-op; anything else is
// logged and swallowed.
func (w *Watcher) expireDismissReaction(channelID, replyID string, log *slog.Logger) {
	// Detached from the parent workflow deliberately: the parent has
	// long since returned when this fires.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.client.Unreact(ctx, channelID, replyID, DismissEmoji); err != nil {
		if platform.IsNotFound(err) {
			return
		}
		log.Warn("Failed to expire dismiss reaction", "error", err)
	}
}
