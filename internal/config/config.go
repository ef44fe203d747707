package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
)

type Config struct {
	LogDir   string `envconfig:"LOG_DIR" default:"logs"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	TargetsFile string `envconfig:"TARGETS_FILE" default:"config/websites_config.json"`
	DatabaseURL string `envconfig:"DATABASE_URL"` // empty means the file registry

	CheckInterval time.Duration `envconfig:"CHECK_INTERVAL" default:"30s"`
	CheckSchedule string        `envconfig:"CHECK_SCHEDULE"` // cron spec, overrides CheckInterval

	PingTimeout     time.Duration `envconfig:"PING_TIMEOUT" default:"1s"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"2s"`
	TCPTimeout      time.Duration `envconfig:"TCP_TIMEOUT" default:"2s"`
	HTTPInsecureTLS bool          `envconfig:"HTTP_INSECURE_TLS" default:"true"`
	MaxConcurrent   int           `envconfig:"MAX_CONCURRENT_CHECKS" default:"4"`
	RetryAttempts   int           `envconfig:"RETRY_ATTEMPTS" default:"1"`
	RetryBackoff    time.Duration `envconfig:"RETRY_BACKOFF" default:"300ms"`
	DNSDiagnose     bool          `envconfig:"DNS_DIAGNOSE" default:"true"`

	NotifyTimeout      time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
	WhatsAppAPIURL     string        `envconfig:"WHATSAPP_API_URL" default:"https://7103.api.greenapi.com"`
	WhatsAppToken      string        `envconfig:"WHATSAPP_API_TOKEN"`
	WhatsAppChatID     string        `envconfig:"WHATSAPP_CHAT_ID"`
	WhatsAppInstanceID string        `envconfig:"WHATSAPP_INSTANCE_ID"`
	SlackWebhook       string        `envconfig:"SLACK_WEBHOOK_URL"`

	APIAddr string   `envconfig:"API_ADDR"` // empty disables the status API
	APIKeys []string `envconfig:"API_KEYS"`
}

// Load reads an optional dotenv file (ENV_FILE, default ./.env) and then the
// process environment. Variables already set win over the file.
func Load() (Config, error) {
	if err := readEnvFile(); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.APIKeys = trimAll(cfg.APIKeys)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readEnvFile() error {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var err error
	positive := map[string]time.Duration{
		"PING_TIMEOUT":   c.PingTimeout,
		"HTTP_TIMEOUT":   c.HTTPTimeout,
		"TCP_TIMEOUT":    c.TCPTimeout,
		"NOTIFY_TIMEOUT": c.NotifyTimeout,
	}
	if c.CheckSchedule == "" {
		positive["CHECK_INTERVAL"] = c.CheckInterval
	}
	for _, name := range []string{"CHECK_INTERVAL", "PING_TIMEOUT", "HTTP_TIMEOUT", "TCP_TIMEOUT", "NOTIFY_TIMEOUT"} {
		if d, ok := positive[name]; ok && d <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.MaxConcurrent < 1 {
		err = multierr.Append(err, fmt.Errorf("MAX_CONCURRENT_CHECKS must be >= 1, got %d", c.MaxConcurrent))
	}
	if c.RetryAttempts < 1 {
		err = multierr.Append(err, fmt.Errorf("RETRY_ATTEMPTS must be >= 1, got %d", c.RetryAttempts))
	}
	if c.RetryBackoff < 0 {
		err = multierr.Append(err, fmt.Errorf("RETRY_BACKOFF must not be negative, got %s", c.RetryBackoff))
	}
	if c.CheckSchedule != "" {
		if _, perr := cron.ParseStandard(c.CheckSchedule); perr != nil {
			err = multierr.Append(err, fmt.Errorf("CHECK_SCHEDULE: %w", perr))
		}
	}
	wa := []string{c.WhatsAppInstanceID, c.WhatsAppToken, c.WhatsAppChatID}
	set := 0
	for _, v := range wa {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(wa) {
		err = multierr.Append(err, errors.New("WHATSAPP_INSTANCE_ID, WHATSAPP_API_TOKEN and WHATSAPP_CHAT_ID must be set together"))
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// WhatsAppEnabled reports whether the Green API credentials are complete.
func (c Config) WhatsAppEnabled() bool {
	return c.WhatsAppInstanceID != "" && c.WhatsAppToken != "" && c.WhatsAppChatID != ""
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
