package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envDiscordBotToken    = "DISCORD_BOT_TOKEN"
	envUpstreamBotID      = "UPSTREAM_BOT_ID"
	envEnvironment        = "ENVIRONMENT"
	envDevelopmentGuildID = "DEVELOPMENT_GUILD_ID"
)

// EnvironmentDevelopment is the only environment value that restricts
// processing to the configured development guild.
const EnvironmentDevelopment = "development"

// Rick bot, the scanner whose embeds carry the contract addresses.
const defaultUpstreamBotID = "1081815963990761542"

const defaultTrenchBaseURL = "https://trench.bot"

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Discord  DiscordConfig  `json:"discord"`
	Upstream UpstreamConfig `json:"upstream"`
	Trench   TrenchConfig   `json:"trench"`
	Watcher  WatcherConfig  `json:"watcher"`
	Gateway  GatewayConfig  `json:"gateway"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
}

// DiscordConfig configures the Discord session.
type DiscordConfig struct {
	Token string `json:"token"`
}

// UpstreamConfig identifies the external scanner bot whose messages
// trigger bundle checks.
type UpstreamConfig struct {
	BotID string `json:"bot_id"`
}

// TrenchConfig configures the analytics API client.
type TrenchConfig struct {
	BaseURL               string `json:"base_url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// WatcherConfig configures workflow timing and the optional guild
// restriction.
type WatcherConfig struct {
	Environment          string `json:"environment"`
	DevelopmentGuildID   string `json:"development_guild_id"`
	ErrorDisplaySeconds  int    `json:"error_display_seconds"`
	DismissWindowSeconds int    `json:"dismiss_window_seconds"`
}

// GatewayConfig configures status server bind settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// LoadConfig resolves config.json, unmarshals it, and applies
// environment overrides and defaults.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if token := strings.TrimSpace(os.Getenv(envDiscordBotToken)); token != "" {
		cfg.Discord.Token = token
	}

	if botID := strings.TrimSpace(os.Getenv(envUpstreamBotID)); botID != "" {
		cfg.Upstream.BotID = botID
	}

	if environment := strings.TrimSpace(os.Getenv(envEnvironment)); environment != "" {
		cfg.Watcher.Environment = strings.ToLower(environment)
	}

	if guildID := strings.TrimSpace(os.Getenv(envDevelopmentGuildID)); guildID != "" {
		cfg.Watcher.DevelopmentGuildID = guildID
	}
}

// applyDefaults fills settings the file and environment left unset.
func applyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if strings.TrimSpace(cfg.Upstream.BotID) == "" {
		cfg.Upstream.BotID = defaultUpstreamBotID
	}

	if strings.TrimSpace(cfg.Trench.BaseURL) == "" {
		cfg.Trench.BaseURL = defaultTrenchBaseURL
	}
}

// findConfigPath resolves the active config file location.
//
// Precedence is TRENCHRADAR_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("TRENCHRADAR_CONFIG")); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("TRENCHRADAR_CONFIG does not point to a file: %s", value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
