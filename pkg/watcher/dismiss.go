package watcher

import (
	"context"
	"log/slog"

	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/platform"
)

// chainAction is the disposition resolveChain assigns to a dismiss
// reaction after walking the reply chain.
type chainAction int

const (
	// chainIgnore drops the event with no side effect.
	chainIgnore chainAction = iota
	// chainDelete removes the reacted-to reply unconditionally: its
	// chain is broken, so it is an orphaned artifact.
	chainDelete
	// chainCheckAuthor defers to the origin-author authorization rule.
	chainCheckAuthor
)

// replyChain is the structured result of walking reply → upstream →
// origin for a reacted-to message.
type replyChain struct {
	action         chainAction
	originAuthorID string
}

// HandleReaction processes one reaction-added event. Only the dismiss
// emoji on one of the bot's own replies is of interest, and deletion is
// authorized only for the author of the origin message that started the
// chain.
func (w *Watcher) HandleReaction(ctx context.Context, ev platform.Reaction) {
	if ev.ReactorID == w.client.BotID() {
		return
	}
	if ev.Emoji != DismissEmoji {
		return
	}

	log := w.log.With("channel_id", ev.ChannelID, "message_id", ev.MessageID, "reactor_id", ev.ReactorID)

	chain, err := w.resolveChain(ctx, ev.ChannelID, ev.MessageID)
	if err != nil {
		log.Error("Failed to resolve reply chain", "error", err)
		return
	}

	switch chain.action {
	case chainDelete:
		w.deleteReply(ctx, ev.ChannelID, ev.MessageID, log)
	case chainCheckAuthor:
		if ev.ReactorID != chain.originAuthorID {
			// Third-party reaction: ignored, not removed.
			return
		}
		log.Info("Dismiss authorized by origin author")
		w.deleteReply(ctx, ev.ChannelID, ev.MessageID, log)
	}
}

// resolveChain walks the three-message ancestry of a reacted-to reply:
// the bot's reply, the scanner-bot message it replies to, and the user
// message that scanner-bot message replies to. Every "message not
// found" outcome short-circuits into a disposition instead of an error.
func (w *Watcher) resolveChain(ctx context.Context, channelID, messageID string) (replyChain, error) {
	msg, err := w.client.Message(ctx, channelID, messageID)
	if err != nil {
		if platform.IsNotFound(err) {
			return replyChain{action: chainIgnore}, nil
		}
		return replyChain{}, err
	}

	if msg.AuthorID != w.client.BotID() {
		return replyChain{action: chainIgnore}, nil
	}

	if !msg.IsReply() {
		// A bot message carrying the dismiss reaction without a reply
		// reference has lost its context; clean it up.
		return replyChain{action: chainDelete}, nil
	}

	upstream, err := w.client.Message(ctx, channelID, msg.ReferenceID)
	if err != nil {
		if platform.IsNotFound(err) {
			return replyChain{action: chainDelete}, nil
		}
		return replyChain{}, err
	}

	if upstream.AuthorID != w.upstreamBotID || !upstream.IsReply() {
		return replyChain{action: chainDelete}, nil
	}

	origin, err := w.client.Message(ctx, channelID, upstream.ReferenceID)
	if err != nil {
		if platform.IsNotFound(err) {
			return replyChain{action: chainDelete}, nil
		}
		return replyChain{}, err
	}

	return replyChain{action: chainCheckAuthor, originAuthorID: origin.AuthorID}, nil
}

// deleteReply removes one of the bot's replies, treating an
// already-deleted reply as success.
func (w *Watcher) deleteReply(ctx context.Context, channelID, messageID string, log *slog.Logger) {
	if err := w.client.Delete(ctx, channelID, messageID); err != nil {
		if platform.IsNotFound(err) {
			return
		}
		log.Error("Failed to delete reply", "error", err)
		return
	}

	log.Info("Deleted bundle reply")
}
