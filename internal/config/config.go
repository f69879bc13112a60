package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/tannerhall/repowatch/internal/logging"
)

const (
	// MinInterval is the floor on the poll cadence. Values below it are
	// clamped rather than rejected so a bad edit cannot stall hot reload.
	MinInterval = 10 * time.Second

	defaultBranch   = "master"
	defaultPlatform = "qq"
)

var validate = validator.New()

// Target is a single (owner, repo, branch) triple to monitor.
type Target struct {
	Owner  string `mapstructure:"owner" validate:"required"`
	Repo   string `mapstructure:"repo" validate:"required"`
	Branch string `mapstructure:"branch"`
}

// Key returns the unique identity of the target used by the tracker.
func (t Target) Key() string {
	return fmt.Sprintf("%s/%s/%s", t.Owner, t.Repo, t.Branch)
}

// Validate reports whether the target carries all required fields.
func (t Target) Validate() error {
	return validate.Struct(t)
}

// Subscriber is a chat group that receives commit notifications.
type Subscriber struct {
	GroupID  string `mapstructure:"group_id" validate:"required"`
	Platform string `mapstructure:"platform"`
}

// Validate reports whether the subscriber carries all required fields.
func (s Subscriber) Validate() error {
	return validate.Struct(s)
}

// PluginConfig gates whether the monitor daemon starts at all.
type PluginConfig struct {
	Enable bool `mapstructure:"enable"`
}

// GlobalConfig holds settings shared by every poll cycle.
type GlobalConfig struct {
	Token            string `mapstructure:"token"`
	Interval         int    `mapstructure:"interval"` // seconds
	EnableCommentary bool   `mapstructure:"enable_commentary"`
}

// MonitorConfig lists what to watch and who to tell.
type MonitorConfig struct {
	Repositories []Target     `mapstructure:"repositories"`
	Subscribers  []Subscriber `mapstructure:"subscribers"`
}

// GitHubConfig holds settings for the upstream commit API.
type GitHubConfig struct {
	APIURL string `mapstructure:"api_url"`
}

// OneBotConfig holds settings for the delivery bot API.
type OneBotConfig struct {
	APIURL      string `mapstructure:"api_url"`
	AccessToken string `mapstructure:"access_token"`
}

// CommentaryConfig holds settings for the optional remark generator.
// An empty APIURL disables generation regardless of the global flag.
type CommentaryConfig struct {
	APIURL string `mapstructure:"api_url"`
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// HistoryConfig selects where delivery history is recorded.
type HistoryConfig struct {
	Sink string `mapstructure:"sink"` // "none", "file" or "sql"
	Dir  string `mapstructure:"dir"`
	DSN  string `mapstructure:"dsn"`
}

// Config is one immutable snapshot of the application configuration.
type Config struct {
	Plugin     PluginConfig     `mapstructure:"plugin"`
	Global     GlobalConfig     `mapstructure:"global"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	GitHub     GitHubConfig     `mapstructure:"github"`
	OneBot     OneBotConfig     `mapstructure:"onebot"`
	Commentary CommentaryConfig `mapstructure:"commentary"`
	History    HistoryConfig    `mapstructure:"history"`
	LogLevel   string           `mapstructure:"log_level"`
	LogFormat  string           `mapstructure:"log_format"`
}

// PollInterval returns the configured cadence, clamped to MinInterval.
func (c *Config) PollInterval() time.Duration {
	d := time.Duration(c.Global.Interval) * time.Second
	if d < MinInterval {
		return MinInterval
	}
	return d
}

// Provider produces fresh configuration snapshots. Snapshot re-reads the
// config file on every call, so runtime edits take effect within one poll
// interval without a restart.
type Provider struct {
	path   string
	logger logging.Logger
}

// NewProvider creates a Provider. path may be empty, in which case the
// conventional search paths are used.
func NewProvider(path string, logger logging.Logger) *Provider {
	return &Provider{path: path, logger: logger.Named("config")}
}

// Snapshot loads configuration from file, environment variables, and
// defaults using Viper, then validates it.
func (p *Provider) Snapshot() (*Config, error) {
	v := viper.New()

	v.SetDefault("plugin.enable", true)
	v.SetDefault("global.token", "")
	v.SetDefault("global.interval", 60)
	v.SetDefault("global.enable_commentary", true)
	v.SetDefault("monitor.repositories", []Target{})
	v.SetDefault("monitor.subscribers", []Subscriber{})
	v.SetDefault("github.api_url", "https://api.github.com")
	v.SetDefault("onebot.api_url", "")
	v.SetDefault("onebot.access_token", "")
	v.SetDefault("commentary.api_url", "")
	v.SetDefault("commentary.api_key", "")
	v.SetDefault("commentary.model", "gpt-4o-mini")
	v.SetDefault("history.sink", "none")
	v.SetDefault("history.dir", ".")
	v.SetDefault("history.dsn", "")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("REPOWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if p.path != "" {
		v.SetConfigFile(p.path)
	} else {
		v.SetConfigName("repowatch")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/repowatch/")
		v.AddConfigPath("$HOME/.repowatch")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			p.logger.Debug("No config file found, using defaults and environment variables.")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// --- Post-Load Processing & Validation ---
	if time.Duration(cfg.Global.Interval)*time.Second < MinInterval {
		p.logger.Warn("Configured interval below minimum, clamping", "configured", cfg.Global.Interval, "minimum_seconds", int(MinInterval/time.Second))
		cfg.Global.Interval = int(MinInterval / time.Second)
	}

	for i := range cfg.Monitor.Repositories {
		if cfg.Monitor.Repositories[i].Branch == "" {
			cfg.Monitor.Repositories[i].Branch = defaultBranch
		}
	}
	for i := range cfg.Monitor.Subscribers {
		if cfg.Monitor.Subscribers[i].Platform == "" {
			cfg.Monitor.Subscribers[i].Platform = defaultPlatform
		}
	}

	validLevels := map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}
	if _, ok := validLevels[strings.ToUpper(cfg.LogLevel)]; !ok {
		return nil, fmt.Errorf("invalid log_level %q: must be one of DEBUG, INFO, WARN, ERROR", cfg.LogLevel)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if _, ok := validFormats[strings.ToLower(cfg.LogFormat)]; !ok {
		return nil, fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	switch cfg.History.Sink {
	case "none", "file":
	case "sql":
		if cfg.History.DSN == "" {
			return nil, fmt.Errorf("history.dsn must be set when history.sink is 'sql'")
		}
	default:
		return nil, fmt.Errorf("invalid history.sink %q: must be 'none', 'file' or 'sql'", cfg.History.Sink)
	}

	return &cfg, nil
}
