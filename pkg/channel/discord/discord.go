// Package discord bridges a Discord gateway session into the bot's
// channel and platform contracts.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/channel"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/config"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/platform"
)

const channelName = "discord"

// Adapter owns the Discord session and implements both channel.Adapter
// and platform.Messenger on top of it.
type Adapter struct {
	cfg     config.DiscordConfig
	log     *slog.Logger
	session *discordgo.Session

	mu    sync.RWMutex
	botID string
}

// NewAdapter validates Discord configuration and constructs the session.
func NewAdapter(cfg config.DiscordConfig, log *slog.Logger) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("discord.token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("initialize discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMessageReactions

	return &Adapter{
		cfg:     cfg,
		log:     log.With("component", "channel.discord"),
		session: session,
	}, nil
}

// Name returns the channel identifier used in status payloads and logs.
func (a *Adapter) Name() string {
	return channelName
}

// Messenger returns the outbound client handle backed by this session.
func (a *Adapter) Messenger() platform.Messenger {
	return a
}

// Run opens the gateway connection and forwards message and reaction
// events into sink until ctx is done.
//
// discordgo dispatches every registered handler on its own goroutine,
// which matches the one-concurrent-task-per-event model the sink expects.
func (a *Adapter) Run(ctx context.Context, sink channel.Sink) error {
	if sink == nil {
		return errors.New("sink is required")
	}

	removeReady := a.session.AddHandler(func(_ *discordgo.Session, ready *discordgo.Ready) {
		a.setBotID(ready.User.ID)
		a.log.Info("Connected to Discord", "username", ready.User.Username, "bot_id", ready.User.ID)
	})
	defer removeReady()

	removeMessage := a.session.AddHandler(func(_ *discordgo.Session, event *discordgo.MessageCreate) {
		if event.Message == nil {
			return
		}
		sink.HandleMessage(ctx, fromMessage(event.Message))
	})
	defer removeMessage()

	removeReaction := a.session.AddHandler(func(_ *discordgo.Session, event *discordgo.MessageReactionAdd) {
		if event.MessageReaction == nil {
			return
		}
		sink.HandleReaction(ctx, fromReaction(event.MessageReaction))
	})
	defer removeReaction()

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}

	a.log.Info("Discord channel started")

	<-ctx.Done()

	if err := a.session.Close(); err != nil {
		a.log.Error("Failed to close discord session", "error", err)
	}

	return nil
}

// BotID returns the connected bot account id, empty before the session
// is ready.
func (a *Adapter) BotID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.botID
}

func (a *Adapter) setBotID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.botID = id
}

// Reply posts a reply to messageID and returns the new message id.
func (a *Adapter) Reply(ctx context.Context, channelID, messageID, content string) (string, error) {
	msg, err := a.session.ChannelMessageSendReply(channelID, content, &discordgo.MessageReference{
		MessageID: messageID,
		ChannelID: channelID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}

	return msg.ID, nil
}

// Edit replaces content and embed of one of the bot's own messages.
func (a *Adapter) Edit(ctx context.Context, channelID, messageID string, content platform.ReplyContent) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.SetContent(content.Content)
	if content.Embed != nil {
		edit.SetEmbed(toEmbed(content.Embed))
	}

	if _, err := a.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return mapError(err)
	}

	return nil
}

// Delete removes a message.
func (a *Adapter) Delete(ctx context.Context, channelID, messageID string) error {
	return mapError(a.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

// React attaches emoji to a message as the bot.
func (a *Adapter) React(ctx context.Context, channelID, messageID, emoji string) error {
	return mapError(a.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)))
}

// Unreact removes the bot's own emoji reaction from a message.
func (a *Adapter) Unreact(ctx context.Context, channelID, messageID, emoji string) error {
	return mapError(a.session.MessageReactionRemove(channelID, messageID, emoji, "@me", discordgo.WithContext(ctx)))
}

// Message fetches a message by id.
func (a *Adapter) Message(ctx context.Context, channelID, messageID string) (platform.Message, error) {
	msg, err := a.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Message{}, mapError(err)
	}

	return fromMessage(msg), nil
}

// mapError normalizes Discord REST failures, translating "unknown
// message" responses into platform.ErrNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) {
		if rest.Message != nil && rest.Message.Code == discordgo.ErrCodeUnknownMessage {
			return platform.ErrNotFound
		}
		if rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
			return platform.ErrNotFound
		}
	}

	return err
}

func fromMessage(msg *discordgo.Message) platform.Message {
	out := platform.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
	}

	if msg.Author != nil {
		out.AuthorID = msg.Author.ID
	}
	if msg.MessageReference != nil {
		out.ReferenceID = msg.MessageReference.MessageID
	}

	for _, embed := range msg.Embeds {
		if embed == nil {
			continue
		}
		out.Embeds = append(out.Embeds, platform.Embed{
			Title:       embed.Title,
			Description: embed.Description,
		})
	}

	return out
}

func fromReaction(reaction *discordgo.MessageReaction) platform.Reaction {
	return platform.Reaction{
		ReactorID: reaction.UserID,
		Emoji:     reaction.Emoji.APIName(),
		MessageID: reaction.MessageID,
		ChannelID: reaction.ChannelID,
		GuildID:   reaction.GuildID,
	}
}

func toEmbed(embed *platform.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}

	for _, field := range embed.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   field.Name,
			Value:  field.Value,
			Inline: field.Inline,
		})
	}

	if embed.FooterText != "" {
		out.Footer = &discordgo.MessageEmbedFooter{
			Text:    embed.FooterText,
			IconURL: embed.FooterIconURL,
		}
	}

	return out
}
