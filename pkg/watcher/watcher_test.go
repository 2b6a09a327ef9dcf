package watcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/config"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/platform"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/trench"
)

const (
	testBotID      = "bot-1"
	testUpstreamID = "rick-1"
	testAddress    = "3N2p11qQz8c9Qz8c9Qz8c9Qz8c9Qz8c9Qz8c9Q"
)

type call struct {
	Op        string
	ChannelID string
	MessageID string
	Arg       string
}

// fakeMessenger records platform calls and serves canned messages.
type fakeMessenger struct {
	mu       sync.Mutex
	calls    []call
	edits    []platform.ReplyContent
	messages map[string]platform.Message

	replyID    string
	replyErr   error
	editErr    error
	deleteErr  error
	reactErr   error
	unreactErr error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{replyID: "reply-1", messages: map[string]platform.Message{}}
}

func (f *fakeMessenger) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeMessenger) BotID() string { return testBotID }

func (f *fakeMessenger) Reply(_ context.Context, channelID, messageID, content string) (string, error) {
	f.record(call{Op: "reply", ChannelID: channelID, MessageID: messageID, Arg: content})
	if f.replyErr != nil {
		return "", f.replyErr
	}
	return f.replyID, nil
}

func (f *fakeMessenger) Edit(_ context.Context, channelID, messageID string, content platform.ReplyContent) error {
	f.record(call{Op: "edit", ChannelID: channelID, MessageID: messageID, Arg: content.Content})
	if f.editErr != nil {
		return f.editErr
	}
	f.mu.Lock()
	f.edits = append(f.edits, content)
	f.mu.Unlock()
	return nil
}

func (f *fakeMessenger) Delete(_ context.Context, channelID, messageID string) error {
	f.record(call{Op: "delete", ChannelID: channelID, MessageID: messageID})
	return f.deleteErr
}

func (f *fakeMessenger) React(_ context.Context, channelID, messageID, emoji string) error {
	f.record(call{Op: "react", ChannelID: channelID, MessageID: messageID, Arg: emoji})
	return f.reactErr
}

func (f *fakeMessenger) Unreact(_ context.Context, channelID, messageID, emoji string) error {
	f.record(call{Op: "unreact", ChannelID: channelID, MessageID: messageID, Arg: emoji})
	return f.unreactErr
}

func (f *fakeMessenger) Message(_ context.Context, channelID, messageID string) (platform.Message, error) {
	f.record(call{Op: "fetch", ChannelID: channelID, MessageID: messageID})
	msg, ok := f.messages[messageID]
	if !ok {
		return platform.Message{}, platform.ErrNotFound
	}
	return msg, nil
}

func (f *fakeMessenger) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		ops = append(ops, c.Op)
	}
	return ops
}

// fakeFetcher returns a canned report or error.
type fakeFetcher struct {
	report *trench.BundleReport
	err    error
}

func (f *fakeFetcher) BundleReport(_ context.Context, _ string) (*trench.BundleReport, error) {
	return f.report, f.err
}

func (f *fakeFetcher) PageURL(address string) string {
	return "https://trench.bot/bundles/" + address
}

// fakeScheduler records delays, runs deferred work synchronously, and
// never sleeps for real.
type fakeScheduler struct {
	mu          sync.Mutex
	sleeps      []time.Duration
	afterDelays []time.Duration
}

func (f *fakeScheduler) Sleep(_ context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	return nil
}

func (f *fakeScheduler) AfterFunc(d time.Duration, fn func()) {
	f.mu.Lock()
	f.afterDelays = append(f.afterDelays, d)
	f.mu.Unlock()
	fn()
}

func goodReport() *trench.BundleReport {
	return &trench.BundleReport{
		Ticker:                 "TEST",
		TotalHoldingPercentage: 2.5,
		TotalBundles:           4,
		TotalPercentageBundled: 30.1,
		TotalSOLSpent:          5.5,
		CreatorAnalysis:        trench.CreatorAnalysis{RiskLevel: "LOW"},
	}
}

func qualifyingMessage() platform.Message {
	return platform.Message{
		ID:        "msg-1",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
		AuthorID:  testUpstreamID,
		Embeds:    []platform.Embed{{Description: "Solana scan\n`" + testAddress + "`"}},
	}
}

func newTestWatcher(client *fakeMessenger, fetcher *fakeFetcher, sched *fakeScheduler, cfg config.WatcherConfig) *Watcher {
	return New(client, fetcher, sched, cfg, testUpstreamID, nil)
}

func TestHandleMessageHappyPath(t *testing.T) {
	t.Parallel()

	client := newFakeMessenger()
	sched := &fakeScheduler{}
	w := newTestWatcher(client, &fakeFetcher{report: goodReport()}, sched, config.WatcherConfig{})

	w.HandleMessage(context.Background(), qualifyingMessage())

	require.Equal(t, []string{"reply", "edit", "react", "unreact"}, client.ops())

	require.Equal(t, placeholderText, client.calls[0].Arg)
	require.Equal(t, "msg-1", client.calls[0].MessageID)

	require.Len(t, client.edits, 1)
	populated := client.edits[0]
	require.Contains(t, populated.Content, "Trench.bot Analysis: TEST")
	require.Contains(t, populated.Content, "https://trench.bot/bundles/"+testAddress)
	require.NotNil(t, populated.Embed)
	require.Len(t, populated.Embed.Fields, 3)

	require.Equal(t, DismissEmoji, client.calls[2].Arg)
	require.Equal(t, "reply-1", client.calls[2].MessageID)

	require.Equal(t, []time.Duration{defaultDismissWindow}, sched.afterDelays)
	require.Equal(t, DismissEmoji, client.calls[3].Arg)
	require.Empty(t, sched.sleeps)
}

func TestHandleMessageIgnoresOtherAuthors(t *testing.T) {
	t.Parallel()

	client := newFakeMessenger()
	w := newTestWatcher(client, &fakeFetcher{report: goodReport()}, &fakeScheduler{}, config.WatcherConfig{})

	msg := qualifyingMessage()
	msg.AuthorID = "someone-else"
	w.HandleMessage(context.Background(), msg)

	require.Empty(t, client.ops())
}

func TestHandleMessageIgnoresWithoutAddress(t *testing.T) {
	t.Parallel()

	client := newFakeMessenger()
	w := newTestWatcher(client, &fakeFetcher{report: goodReport()}, &fakeScheduler{}, config.WatcherConfig{})

	msg := qualifyingMessage()
	msg.Embeds = []platform.Embed{{Description: "Solana scan\nno address here"}}
	w.HandleMessage(context.Background(), msg)

	require.Empty(t, client.ops())
}

func TestHandleMessageDevelopmentGuildGate(t *testing.T) {
	t.Parallel()

	cfg := config.WatcherConfig{Environment: "development", DevelopmentGuildID: "dev-guild"}

	client := newFakeMessenger()
	w := newTestWatcher(client, &fakeFetcher{report: goodReport()}, &fakeScheduler{}, cfg)

	w.HandleMessage(context.Background(), qualifyingMessage())
	require.Empty(t, client.ops(), "foreign guild must be ignored in development")

	msg := qualifyingMessage()
	msg.GuildID = "dev-guild"
	w.HandleMessage(context.Background(), msg)
	require.NotEmpty(t, client.ops(), "development guild must be processed")
}

func TestHandleMessageFetchFailure(t *testing.T) {
	t.Parallel()

	client := newFakeMessenger()
	sched := &fakeScheduler{}
	w := newTestWatcher(client, &fakeFetcher{err: context.DeadlineExceeded}, sched, config.WatcherConfig{})

	w.HandleMessage(context.Background(), qualifyingMessage())

	require.Equal(t, []string{"reply", "edit", "delete"}, client.ops())
	require.Equal(t, fetchFailedText, client.calls[1].Arg)
	require.Equal(t, "reply-1", client.calls[2].MessageID)
	require.Equal(t, []time.Duration{defaultErrorDisplayDelay}, sched.sleeps)
}

func TestHandleMessageNoDataFailure(t *testing.T) {
	t.Parallel()

	client := newFakeMessenger()
	sched := &fakeScheduler{}
	w := newTestWatcher(client, &fakeFetcher{err: trench.ErrNoData}, sched, config.WatcherConfig{})

	w.HandleMessage(context.Background(), qualifyingMessage())

	require.Equal(t, []string{"reply", "edit", "delete"}, client.ops())
	require.Equal(t, fetchFailedText, client.calls[1].Arg)
}

func TestHandleMessageFormatFailure(t *testing.T) {
	t.Parallel()

	report := goodReport()
	report.CreatorAnalysis.RiskLevel = "BOGUS"

	client := newFakeMessenger()
	sched := &fakeScheduler{}
	w := newTestWatcher(client, &fakeFetcher{report: report}, sched, config.WatcherConfig{})

	w.HandleMessage(context.Background(), qualifyingMessage())

	require.Equal(t, []string{"reply", "edit", "delete"}, client.ops())
	require.Equal(t, genericFailedText, client.calls[1].Arg)
	require.Equal(t, []time.Duration{defaultErrorDisplayDelay}, sched.sleeps)
}

func TestHandleMessagePlaceholderFailureStopsWorkflow(t *testing.T) {
	t.Parallel()

	client := newFakeMessenger()
	client.replyErr = context.DeadlineExceeded
	w := newTestWatcher(client, &fakeFetcher{report: goodReport()}, &fakeScheduler{}, config.WatcherConfig{})

	w.HandleMessage(context.Background(), qualifyingMessage())

	require.Equal(t, []string{"reply"}, client.ops())
}

func TestHandleMessagePlaceholderVanishedBeforeEdit(t *testing.T) {
	t.Parallel()

	client := newFakeMessenger()
	client.editErr = platform.ErrNotFound
	w := newTestWatcher(client, &fakeFetcher{report: goodReport()}, &fakeScheduler{}, config.WatcherConfig{})

	w.HandleMessage(context.Background(), qualifyingMessage())

	// The populate edit fails not-found; no failure notice follows.
	require.Equal(t, []string{"reply", "edit"}, client.ops())
}

func TestHandleMessageReactionAttachFailureKeepsReply(t *testing.T) {
	t.Parallel()

	client := newFakeMessenger()
	client.reactErr = context.DeadlineExceeded
	sched := &fakeScheduler{}
	w := newTestWatcher(client, &fakeFetcher{report: goodReport()}, sched, config.WatcherConfig{})

	w.HandleMessage(context.Background(), qualifyingMessage())

	require.Equal(t, []string{"reply", "edit", "react"}, client.ops())
	require.Empty(t, sched.afterDelays, "no removal scheduled without an attached reaction")
}

func TestExpireDismissReactionGoneIsNoOp(t *testing.T) {
	t.Parallel()

	client := newFakeMessenger()
	client.unreactErr = platform.ErrNotFound
	sched := &fakeScheduler{}
	w := newTestWatcher(client, &fakeFetcher{report: goodReport()}, sched, config.WatcherConfig{})

	w.HandleMessage(context.Background(), qualifyingMessage())

	// The deferred removal ran against a vanished reply and swallowed it.
	require.Equal(t, []string{"reply", "edit", "react", "unreact"}, client.ops())
}

func TestConfiguredDelays(t *testing.T) {
	t.Parallel()

	cfg := config.WatcherConfig{ErrorDisplaySeconds: 2, DismissWindowSeconds: 5}

	client := newFakeMessenger()
	sched := &fakeScheduler{}
	w := newTestWatcher(client, &fakeFetcher{err: trench.ErrNoData}, sched, cfg)

	w.HandleMessage(context.Background(), qualifyingMessage())
	require.Equal(t, []time.Duration{2 * time.Second}, sched.sleeps)

	client2 := newFakeMessenger()
	sched2 := &fakeScheduler{}
	w2 := newTestWatcher(client2, &fakeFetcher{report: goodReport()}, sched2, cfg)

	w2.HandleMessage(context.Background(), qualifyingMessage())
	require.Equal(t, []time.Duration{5 * time.Second}, sched2.afterDelays)
}
