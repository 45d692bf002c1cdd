package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ContentBriefs/internal/domain"
)

const (
	configPathEnv      = "CONTENT_BRIEFS_CONFIG"
	logLevelEnv        = "LOG_LEVEL"
	defaultProviderEnv = "DEFAULT_AI_PROVIDER"
	databaseDriverEnv  = "DATABASE_DRIVER"
	databaseDSNEnv     = "DATABASE_DSN"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
)

// providerKeyEnv maps each provider to the variable holding its API key.
var providerKeyEnv = map[domain.ProviderID]string{
	domain.ProviderOpenAI:     "OPENAI_API_KEY",
	domain.ProviderClaude:     "CLAUDE_API_KEY",
	domain.ProviderGrok:       "GROK_API_KEY",
	domain.ProviderPerplexity: "PERPLEXITY_API_KEY",
	domain.ProviderMistral:    "MISTRAL_API_KEY",
}

// Config holds high-level settings required across the application.
type Config struct {
	Logging         LoggingConfig                         `yaml:"logging"`
	Server          ServerConfig                          `yaml:"server"`
	Research        ResearchConfig                        `yaml:"research"`
	DefaultProvider domain.ProviderID                     `yaml:"defaultProvider"`
	Providers       map[domain.ProviderID]ProviderConfig `yaml:"providers"`
	Database        DatabaseConfig                        `yaml:"database"`
	History         HistoryConfig                         `yaml:"history"`
	Notifications   NotificationConfig                    `yaml:"notifications"`
	Archive         ArchiveConfig                         `yaml:"archive"`
	Clients         []domain.Guidelines                   `yaml:"clients"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig describes the HTTP API listener.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	BasePath string `yaml:"basePath"`
}

// ResearchConfig tunes the website researcher.
type ResearchConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	VerifyTimeout time.Duration `yaml:"verifyTimeout"`
	UserAgent     string        `yaml:"userAgent"`
	MaxLinks      int           `yaml:"maxLinks"`
}

// ProviderConfig defines how to contact one AI provider.
type ProviderConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DatabaseConfig describes where run history lives.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// HistoryConfig controls run history retention.
type HistoryConfig struct {
	Retention     time.Duration `yaml:"retention"`
	PruneInterval time.Duration `yaml:"pruneInterval"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// ArchiveConfig names the downloadable bundle.
type ArchiveConfig struct {
	Filename string `yaml:"filename"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Parse decodes a YAML document into a Config without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// AvailableProviders returns the providers that have an API key configured.
func (c Config) AvailableProviders() []domain.ProviderID {
	var out []domain.ProviderID
	for _, id := range domain.KnownProviders {
		if p, ok := c.Providers[id]; ok && p.APIKey != "" {
			out = append(out, id)
		}
	}
	return out
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(defaultProviderEnv); v != "" {
		c.DefaultProvider = domain.ProviderID(strings.ToLower(strings.TrimSpace(v)))
	}

	for id, env := range providerKeyEnv {
		if v := os.Getenv(env); v != "" {
			p := c.Providers[id]
			p.APIKey = v
			c.Providers[id] = p
		}
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.BasePath != "" {
		base.Server.BasePath = override.Server.BasePath
	}

	if override.Research.Timeout > 0 {
		base.Research.Timeout = override.Research.Timeout
	}
	if override.Research.VerifyTimeout > 0 {
		base.Research.VerifyTimeout = override.Research.VerifyTimeout
	}
	if override.Research.UserAgent != "" {
		base.Research.UserAgent = override.Research.UserAgent
	}
	if override.Research.MaxLinks > 0 {
		base.Research.MaxLinks = override.Research.MaxLinks
	}

	if override.DefaultProvider != "" {
		base.DefaultProvider = override.DefaultProvider
	}

	for id, p := range override.Providers {
		merged := base.Providers[id]
		if p.Endpoint != "" {
			merged.Endpoint = p.Endpoint
		}
		if p.Model != "" {
			merged.Model = p.Model
		}
		if p.APIKey != "" {
			merged.APIKey = p.APIKey
		}
		if p.Temperature > 0 {
			merged.Temperature = p.Temperature
		}
		if p.MaxTokens > 0 {
			merged.MaxTokens = p.MaxTokens
		}
		if p.Timeout > 0 {
			merged.Timeout = p.Timeout
		}
		base.Providers[id] = merged
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.History.Retention > 0 {
		base.History.Retention = override.History.Retention
	}
	if override.History.PruneInterval > 0 {
		base.History.PruneInterval = override.History.PruneInterval
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Archive.Filename != "" {
		base.Archive.Filename = override.Archive.Filename
	}

	if len(override.Clients) > 0 {
		base.Clients = override.Clients
	}

	return base
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	chat := func(endpoint, model string) ProviderConfig {
		return ProviderConfig{
			Endpoint:    endpoint,
			Model:       model,
			Temperature: 0.3,
			MaxTokens:   4096,
			Timeout:     120 * time.Second,
		}
	}

	return Config{
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: ":8080", BasePath: "/v1"},
		Research: ResearchConfig{
			Timeout:       10 * time.Second,
			VerifyTimeout: 5 * time.Second,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			MaxLinks:      3,
		},
		DefaultProvider: domain.ProviderClaude,
		Providers: map[domain.ProviderID]ProviderConfig{
			domain.ProviderOpenAI:     chat("https://api.openai.com/v1/chat/completions", "gpt-5.2"),
			domain.ProviderClaude:     chat("https://api.anthropic.com/v1/messages", "claude-opus-4-5-20251101"),
			domain.ProviderGrok:       chat("https://api.x.ai/v1/chat/completions", "grok-4"),
			domain.ProviderPerplexity: chat("https://api.perplexity.ai/chat/completions", "sonar-pro"),
			domain.ProviderMistral:    chat("https://api.mistral.ai/v1/chat/completions", "mistral-large-latest"),
		},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "file:content_briefs.db?_pragma=foreign_keys(1)"},
		History:  HistoryConfig{Retention: 30 * 24 * time.Hour, PruneInterval: 24 * time.Hour},
		Archive:  ArchiveConfig{Filename: "content_briefs.zip"},
	}
}
