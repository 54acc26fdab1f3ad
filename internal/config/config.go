package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/vecta/backend-go/internal/editor"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`

	HistoryDepth      int     `envconfig:"HISTORY_DEPTH" default:"100"`
	DefaultTension    float64 `envconfig:"DEFAULT_TENSION" default:"0.5"`
	HitTolerance      float64 `envconfig:"HIT_TOLERANCE" default:"6"`
	SimplifyTolerance float64 `envconfig:"SIMPLIFY_TOLERANCE" default:"1.0"`

	AutosaveInterval time.Duration `envconfig:"AUTOSAVE_INTERVAL" default:"30s"`
	SessionTTL       time.Duration `envconfig:"SESSION_TTL" default:"24h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EditorOptions projects the editor settings. The logger is left for the
// caller to set.
func (c *Config) EditorOptions() editor.Options {
	opts := editor.DefaultOptions()
	if c.HistoryDepth > 0 {
		opts.HistoryDepth = c.HistoryDepth
	}
	opts.DefaultTension = c.DefaultTension
	if c.HitTolerance > 0 {
		opts.HitTolerance = c.HitTolerance
	}
	if c.SimplifyTolerance >= 0 {
		opts.SimplifyTolerance = c.SimplifyTolerance
	}
	return opts
}

// Origins splits AllowedOrigins into its non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginHosts returns the origins without their scheme, the form websocket
// origin patterns are matched against.
func (c *Config) OriginHosts() []string {
	origins := c.Origins()
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		hosts = append(hosts, o)
	}
	return hosts
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	return level, nil
}
