package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/channel"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/channel/discord"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/config"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/gateway"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/logger"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/trench"
	"github.com/bl-nkd-v/trench-radar-discord-bot/pkg/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the bundle-check bot",
	Long:  "Connects to Discord and watches scanner-bot messages, replying with bundle analyses.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.watch")

		adapter, err := discord.NewAdapter(cfg.Discord, appLogger)
		if err != nil {
			log.Error("Discord configuration invalid", "error", err)
			return
		}

		trenchClient := trench.NewClient(cfg.Trench, appLogger)
		sink := watcher.New(adapter.Messenger(), trenchClient, watcher.NewScheduler(), cfg.Watcher, cfg.Upstream.BotID, appLogger)

		adapters := []channel.Adapter{adapter}
		svc, err := gateway.NewService(cfg, adapters, sink, appLogger)
		if err != nil {
			log.Error("Failed to initialize gateway service", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("Watcher started", "channels", channelNames(adapters), "upstream_bot_id", cfg.Upstream.BotID, "environment", cfg.Watcher.Environment)
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Watcher runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func channelNames(adapters []channel.Adapter) string {
	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		names = append(names, adapter.Name())
	}

	return strings.Join(names, ",")
}
