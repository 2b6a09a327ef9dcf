// Package platform defines the chat-platform seam: the message and
// reaction shapes the bot consumes and the Messenger operations it is
// allowed to perform. Components depend on this package instead of a
// concrete Discord session so workflows can be exercised with fakes.
package platform

import (
	"context"
	"errors"
)

// ErrNotFound reports that the target message no longer exists on the
// platform. Callers treat this as a benign race, never a failure.
var ErrNotFound = errors.New("platform: message not found")

// IsNotFound reports whether err (or anything it wraps) is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Message is one inbound or fetched chat message.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	// ReferenceID is the id of the message this one replies to, empty
	// when the message is not a reply.
	ReferenceID string
	Embeds      []Embed
}

// IsReply reports whether the message carries a reply reference.
func (m Message) IsReply() bool {
	return m.ReferenceID != ""
}

// Embed is one structured content block attached to a message.
type Embed struct {
	Title         string
	Description   string
	Color         int
	Fields        []EmbedField
	FooterText    string
	FooterIconURL string
}

// EmbedField is one name/value section inside an embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Reaction is one inbound reaction-added event.
type Reaction struct {
	ReactorID string
	Emoji     string
	MessageID string
	ChannelID string
	GuildID   string
}

// ReplyContent is the renderable payload for posting or editing one of
// the bot's own messages.
type ReplyContent struct {
	Content string
	Embed   *Embed
}

// Messenger is the injected client handle for platform side effects.
// Every method returns ErrNotFound (possibly wrapped) when the target
// message has vanished.
type Messenger interface {
	// BotID returns the bot's own account id.
	BotID() string

	// Reply posts a new message replying to messageID and returns the
	// id of the posted message.
	Reply(ctx context.Context, channelID, messageID, content string) (string, error)

	// Edit replaces the content of one of the bot's own messages.
	Edit(ctx context.Context, channelID, messageID string, content ReplyContent) error

	// Delete removes a message.
	Delete(ctx context.Context, channelID, messageID string) error

	// React attaches an emoji reaction as the bot.
	React(ctx context.Context, channelID, messageID, emoji string) error

	// Unreact removes the bot's own emoji reaction.
	Unreact(ctx context.Context, channelID, messageID, emoji string) error

	// Message fetches a message by id.
	Message(ctx context.Context, channelID, messageID string) (Message, error)
}
