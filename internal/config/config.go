package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Services holds the base URL of every backend service the client talks to.
type Services struct {
	Auth          string `mapstructure:"auth"`
	Users         string `mapstructure:"users"`
	Posts         string `mapstructure:"posts"`
	Comments      string `mapstructure:"comments"`
	Social        string `mapstructure:"social"`
	Media         string `mapstructure:"media"`
	Notifications string `mapstructure:"notifications"`
	Chat          string `mapstructure:"chat"`
}

// Realtime configures the chat channel connection.
type Realtime struct {
	URL                string `mapstructure:"url"`
	PollURL            string `mapstructure:"poll_url"`
	MaxRetries         int    `mapstructure:"max_retries"`
	RetryBackoffMillis int    `mapstructure:"retry_backoff_millis"`
	AckTimeoutSeconds  int    `mapstructure:"ack_timeout_seconds"`

	// derived
	RetryBackoff time.Duration `mapstructure:"-"`
	AckTimeout   time.Duration `mapstructure:"-"`
}

// Telemetry configures the optional audit event pipeline and tracing.
type Telemetry struct {
	AMQPURL      string `mapstructure:"amqp_url"`
	Exchange     string `mapstructure:"exchange"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Config is the full client configuration.
type Config struct {
	Env         string    `mapstructure:"env"`
	LogLevel    string    `mapstructure:"log_level"`
	SessionFile string    `mapstructure:"session_file"`
	MetricsAddr string    `mapstructure:"metrics_addr"`
	FeedLimit   int       `mapstructure:"feed_limit"`
	ChatHistory int       `mapstructure:"chat_history"`
	Services    Services  `mapstructure:"services"`
	Realtime    Realtime  `mapstructure:"realtime"`
	Telemetry   Telemetry `mapstructure:"telemetry"`
}

// Load reads configuration from the given file (optional) with environment
// overrides. Defaults match the platform's local port layout.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SOCIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("session_file", defaultSessionFile())
	v.SetDefault("metrics_addr", "")
	v.SetDefault("feed_limit", 20)
	v.SetDefault("chat_history", 50)

	v.SetDefault("services.auth", "http://localhost:3001/api/v1/auth")
	v.SetDefault("services.users", "http://localhost:3001/api/v1/users")
	v.SetDefault("services.posts", "http://localhost:3002/api/v1/posts")
	v.SetDefault("services.social", "http://localhost:3004/api/v1")
	v.SetDefault("services.media", "http://localhost:3005/api/v1/media")
	v.SetDefault("services.comments", "http://localhost:3006/api/v1/comments")
	v.SetDefault("services.notifications", "http://localhost:3007/api/v1/notifications")
	v.SetDefault("services.chat", "http://localhost:3008/api/v1/chat")

	v.SetDefault("realtime.url", "ws://localhost:3008/realtime/ws")
	v.SetDefault("realtime.poll_url", "http://localhost:3008/realtime")
	v.SetDefault("realtime.max_retries", 5)
	v.SetDefault("realtime.retry_backoff_millis", 1000)
	v.SetDefault("realtime.ack_timeout_seconds", 5)

	v.SetDefault("telemetry.amqp_url", "")
	v.SetDefault("telemetry.exchange", "client_events")
	v.SetDefault("telemetry.otlp_endpoint", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Realtime.MaxRetries <= 0 {
		cfg.Realtime.MaxRetries = 5
	}
	if cfg.Realtime.RetryBackoffMillis <= 0 {
		cfg.Realtime.RetryBackoffMillis = 1000
	}
	if cfg.Realtime.AckTimeoutSeconds <= 0 {
		cfg.Realtime.AckTimeoutSeconds = 5
	}
	cfg.Realtime.RetryBackoff = time.Duration(cfg.Realtime.RetryBackoffMillis) * time.Millisecond
	cfg.Realtime.AckTimeout = time.Duration(cfg.Realtime.AckTimeoutSeconds) * time.Second

	return &cfg, nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".social-client", "session.json")
}
