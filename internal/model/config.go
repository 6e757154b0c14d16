package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// APIConfig points the client at the mandate backend.
type APIConfig struct {
	// BaseURL is the root URL of the REST backend.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds every HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// AIConfig holds settings for the AI intake integration.
type AIConfig struct {
	Model              string `mapstructure:"model" yaml:"model"`
	TranscriptionModel string `mapstructure:"transcription_model" yaml:"transcription_model"`
	BaseURL            string `mapstructure:"base_url" yaml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	// The keyring entry "ai-api-key" takes precedence when present.
	APIKeyEnv string `mapstructure:"api_key_env" yaml:"api_key_env"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme           string `mapstructure:"theme" yaml:"theme"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// PollerConfig tunes the notification poller's failure handling.
type PollerConfig struct {
	MaxFailures   int `mapstructure:"max_failures" yaml:"max_failures"`
	MaxBackoffSec int `mapstructure:"max_backoff_sec" yaml:"max_backoff_sec"`
}

// SessionConfig selects where the session token and user are persisted.
type SessionConfig struct {
	// Backend is "keyring" or "store".
	Backend string `mapstructure:"backend" yaml:"backend"`
	DBPath  string `mapstructure:"db_path" yaml:"db_path"`
}

// RecorderConfig describes the external program used to capture audio.
type RecorderConfig struct {
	Command  string   `mapstructure:"command" yaml:"command"`
	Args     []string `mapstructure:"args" yaml:"args"`
	MIMEType string   `mapstructure:"mime_type" yaml:"mime_type"`
}

// MailboxConfig configures the IMAP mailbox that receives secretary alerts.
// Alerts are disabled when Host is empty.
type MailboxConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	From     string `mapstructure:"from" yaml:"from"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// SeedUser is a roster entry created by the backend on first start.
type SeedUser struct {
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Name     string `mapstructure:"name" yaml:"name"`
	Role     Role   `mapstructure:"role" yaml:"role"`
	Division string `mapstructure:"division" yaml:"division"`
	PhotoURL string `mapstructure:"photo_url" yaml:"photo_url"`
}

// ServerConfig holds settings for the reference backend.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr" yaml:"addr"`
	DBPath      string        `mapstructure:"db_path" yaml:"db_path"`
	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTLMin int           `mapstructure:"token_ttl_min" yaml:"token_ttl_min"`
	Seed        []SeedUser    `mapstructure:"seed" yaml:"seed"`
	Mailbox     MailboxConfig `mapstructure:"mailbox" yaml:"mailbox"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API      APIConfig      `mapstructure:"api" yaml:"api"`
	AI       AIConfig       `mapstructure:"ai" yaml:"ai"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Poller   PollerConfig   `mapstructure:"poller" yaml:"poller"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Recorder RecorderConfig `mapstructure:"recorder" yaml:"recorder"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

// ConfigDir returns ~/.config/bodwatch, or the working directory when the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "bodwatch")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/bodwatch/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8080",
			TimeoutSec: 15,
		},
		AI: AIConfig{
			Model:              "gpt-4o-mini",
			TranscriptionModel: "whisper-1",
			APIKeyEnv:          "OPENAI_API_KEY",
		},
		Display: DisplayConfig{
			Theme:           "default",
			PollIntervalSec: 3,
		},
		Poller: PollerConfig{
			MaxFailures:   5,
			MaxBackoffSec: 60,
		},
		Session: SessionConfig{
			Backend: "keyring",
			DBPath:  filepath.Join(dir, "client.db"),
		},
		Recorder: RecorderConfig{
			Command:  "ffmpeg",
			Args:     []string{"-hide_banner", "-loglevel", "error", "-f", "pulse", "-i", "default", "-f", "webm", "-"},
			MIMEType: "audio/webm",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			DBPath:      filepath.Join(dir, "server.db"),
			TokenTTLMin: 720,
			Mailbox: MailboxConfig{
				Port:    993,
				Mailbox: "INBOX",
				TLS:     true,
			},
		},
	}
}

func setDefaults(v *viper.Viper, cfg *AppConfig) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout_sec", cfg.API.TimeoutSec)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.transcription_model", cfg.AI.TranscriptionModel)
	v.SetDefault("ai.base_url", cfg.AI.BaseURL)
	v.SetDefault("ai.api_key_env", cfg.AI.APIKeyEnv)
	v.SetDefault("display.theme", cfg.Display.Theme)
	v.SetDefault("display.poll_interval_sec", cfg.Display.PollIntervalSec)
	v.SetDefault("poller.max_failures", cfg.Poller.MaxFailures)
	v.SetDefault("poller.max_backoff_sec", cfg.Poller.MaxBackoffSec)
	v.SetDefault("session.backend", cfg.Session.Backend)
	v.SetDefault("session.db_path", cfg.Session.DBPath)
	v.SetDefault("recorder.command", cfg.Recorder.Command)
	v.SetDefault("recorder.args", cfg.Recorder.Args)
	v.SetDefault("recorder.mime_type", cfg.Recorder.MIMEType)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.db_path", cfg.Server.DBPath)
	v.SetDefault("server.jwt_secret", cfg.Server.JWTSecret)
	v.SetDefault("server.token_ttl_min", cfg.Server.TokenTTLMin)
	v.SetDefault("server.mailbox.host", cfg.Server.Mailbox.Host)
	v.SetDefault("server.mailbox.port", cfg.Server.Mailbox.Port)
	v.SetDefault("server.mailbox.username", cfg.Server.Mailbox.Username)
	v.SetDefault("server.mailbox.password", cfg.Server.Mailbox.Password)
	v.SetDefault("server.mailbox.mailbox", cfg.Server.Mailbox.Mailbox)
	v.SetDefault("server.mailbox.from", cfg.Server.Mailbox.From)
	v.SetDefault("server.mailbox.tls", cfg.Server.Mailbox.TLS)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration with
// BODWATCH_* environment overrides applied.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BODWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, defaultAppConfig())

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Display.PollIntervalSec <= 0 {
		cfg.Display.PollIntervalSec = 3
	}
	if cfg.Poller.MaxFailures <= 0 {
		cfg.Poller.MaxFailures = 5
	}
	for i := range cfg.Server.Seed {
		if cfg.Server.Seed[i].Role == "" {
			cfg.Server.Seed[i].Role = RoleUnit
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("ai", cfg.AI)
	v.Set("display", cfg.Display)
	v.Set("poller", cfg.Poller)
	v.Set("session", cfg.Session)
	v.Set("recorder", cfg.Recorder)
	v.Set("server", cfg.Server)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
