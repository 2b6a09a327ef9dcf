// Package gateway supervises the channel adapter and exposes the
// status endpoints.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/channel"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/config"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/platform"
)

const (
	defaultStatusHost = "0.0.0.0"
	defaultStatusPort = 18791
)

// Service runs the channel adapters, routes their events into the
// workflow sink, and serves /healthz and /readyz.
type Service struct {
	cfg      *config.Config
	log      *slog.Logger
	sink     channel.Sink
	channels []channel.Adapter

	mu            sync.RWMutex
	startedAt     time.Time
	messagesSeen  uint64
	reactionsSeen uint64
	channelStates map[string]channelState
}

type channelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Status        string                  `json:"status"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	MessagesSeen  uint64                  `json:"messages_seen"`
	ReactionsSeen uint64                  `json:"reactions_seen"`
	Channels      map[string]channelState `json:"channels"`
}

// NewService wires the supervisor from its adapters and the event sink.
func NewService(cfg *config.Config, adapters []channel.Adapter, sink channel.Sink, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if len(adapters) == 0 {
		return nil, errors.New("at least one channel adapter is required")
	}
	if sink == nil {
		return nil, errors.New("sink is required")
	}
	if log == nil {
		log = slog.Default()
	}

	channelStates := make(map[string]channelState, len(adapters))
	for _, adapter := range adapters {
		channelStates[adapter.Name()] = channelState{}
	}

	return &Service{
		cfg:           cfg,
		log:           log.With("component", "gateway.service"),
		sink:          sink,
		channels:      adapters,
		channelStates: channelStates,
	}, nil
}

// Run starts the status server and the channel adapters, blocking until
// ctx is done or a component fails.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	serverErrors := make(chan error, 1)
	go s.runStatusServer(ctx, serverErrors)

	errCh := make(chan error, len(s.channels))
	for _, adapter := range s.channels {
		adapter := adapter
		s.setChannelState(adapter.Name(), channelState{Running: true})

		go func() {
			err := adapter.Run(ctx, countingSink{service: s, inner: s.sink})
			s.setChannelState(adapter.Name(), channelState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErrors:
		return err
	case err := <-errCh:
		return err
	}
}

// countingSink tallies event throughput for the status payload before
// delegating to the workflow sink.
type countingSink struct {
	service *Service
	inner   channel.Sink
}

func (c countingSink) HandleMessage(ctx context.Context, msg platform.Message) {
	c.service.countMessage()
	c.inner.HandleMessage(ctx, msg)
}

func (c countingSink) HandleReaction(ctx context.Context, reaction platform.Reaction) {
	c.service.countReaction()
	c.inner.HandleReaction(ctx, reaction)
}

func (s *Service) countMessage() {
	s.mu.Lock()
	s.messagesSeen++
	s.mu.Unlock()
}

func (s *Service) countReaction() {
	s.mu.Lock()
	s.reactionsSeen++
	s.mu.Unlock()
}

func (s *Service) runStatusServer(ctx context.Context, errCh chan<- error) {
	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultStatusHost
	}

	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultStatusPort
	}

	addr := host + ":" + strconv.Itoa(port)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("start status server: %w", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	channels := make(map[string]channelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	return statusResponse{
		Status:        status,
		UptimeSeconds: uptime,
		MessagesSeen:  s.messagesSeen,
		ReactionsSeen: s.reactionsSeen,
		Channels:      channels,
	}
}

func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, state := range s.channelStates {
		if state.Running {
			return true
		}
	}

	return false
}

func (s *Service) setChannelState(name string, state channelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStates[name] = state
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
