// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"live-temp-dashboard/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g. DASH_SERVER_PORT.
const EnvPrefix = "DASH"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Server struct {
		Port            int           `mapstructure:"port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Log struct {
		Level      string `mapstructure:"level"`
		File       string `mapstructure:"file"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
	} `mapstructure:"log"`
	Telemetry struct {
		Interval    time.Duration `mapstructure:"interval"`
		SuspendIdle bool          `mapstructure:"suspend_idle"`
		// IdleGrace keeps a dashboard ticking this long after its last API read.
		IdleGrace   time.Duration `mapstructure:"idle_grace"`
	} `mapstructure:"telemetry"`
	Auth struct {
		APIKeys   []string `mapstructure:"api_keys"`
		JWTSecret string   `mapstructure:"jwt_secret"`
		JWTIssuer string   `mapstructure:"jwt_issuer"`
	} `mapstructure:"auth"`
	Dashboards []Dashboard `mapstructure:"dashboards"`
}

// Dashboard describes one feed and the page that shows it.
type Dashboard struct {
	Key         string          `mapstructure:"key"`
	Title       string          `mapstructure:"title"`
	Heading     string          `mapstructure:"heading"`
	Description string          `mapstructure:"description"`
	Caption     string          `mapstructure:"caption"`
	Capacity    int             `mapstructure:"capacity"`
	Range       telemetry.Range `mapstructure:"range"`
	Interval    time.Duration   `mapstructure:"interval"` // zero inherits telemetry.interval
	UnitSelect  bool            `mapstructure:"unit_select"`
	Table       bool            `mapstructure:"table"`
	Trend       bool            `mapstructure:"trend"`
	Links       []Link          `mapstructure:"links"`
	Rules       map[string]Rule `mapstructure:"rules"`
}

type Link struct {
	Label string `mapstructure:"label"`
	URL   string `mapstructure:"url"`
}

// Rule bounds one numeric reading field.
type Rule struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// Load reads config.yaml from dir, an optional .env next to it, and DASH_*
// environment overrides. A missing config file is not an error.
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		slog.Warn("config file not found, using defaults", "dir", dir)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// Environment values for list keys arrive as one space separated string.
	if keys := v.GetStringSlice("auth.api_keys"); len(keys) > 0 {
		cfg.Auth.APIKeys = keys
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IntervalFor returns the tick interval of d.
func (c *Config) IntervalFor(d Dashboard) time.Duration {
	if d.Interval > 0 {
		return d.Interval
	}
	return c.Telemetry.Interval
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Telemetry.Interval <= 0 {
		errs = append(errs, fmt.Errorf("telemetry.interval must be positive"))
	}
	if c.Telemetry.IdleGrace < 0 {
		errs = append(errs, fmt.Errorf("telemetry.idle_grace must not be negative"))
	}
	if len(c.Dashboards) == 0 {
		errs = append(errs, fmt.Errorf("no dashboards configured"))
	}
	seen := make(map[string]bool)
	for i, d := range c.Dashboards {
		if d.Key == "" {
			errs = append(errs, fmt.Errorf("dashboards[%d]: key is required", i))
		} else if seen[d.Key] {
			errs = append(errs, fmt.Errorf("dashboards[%d]: duplicate key %q", i, d.Key))
		}
		seen[d.Key] = true
		if d.Capacity < 1 {
			errs = append(errs, fmt.Errorf("dashboard %q: capacity must be at least 1", d.Key))
		}
		if d.Range.Lo > d.Range.Hi {
			errs = append(errs, fmt.Errorf("dashboard %q: range lo %.1f above hi %.1f", d.Key, d.Range.Lo, d.Range.Hi))
		}
		if !onTenthGrid(d.Range.Lo) || !onTenthGrid(d.Range.Hi) {
			errs = append(errs, fmt.Errorf("dashboard %q: range bounds need at most one decimal", d.Key))
		}
		if d.Interval < 0 {
			errs = append(errs, fmt.Errorf("dashboard %q: negative interval", d.Key))
		}
		for field, r := range d.Rules {
			if r.Min > r.Max {
				errs = append(errs, fmt.Errorf("dashboard %q: rule %s min above max", d.Key, field))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func onTenthGrid(v float64) bool {
	return math.Abs(v*10-math.Round(v*10)) < 1e-9
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("telemetry.interval", "1s")
	v.SetDefault("telemetry.suspend_idle", true)
	v.SetDefault("telemetry.idle_grace", "30s")
	v.SetDefault("auth.api_keys", []string{})
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "live-temp-dashboard")
	v.SetDefault("dashboards", DefaultDashboards())
}

// DefaultDashboards returns the basic and custom dashboards in the shape
// viper expects for defaults.
func DefaultDashboards() []map[string]any {
	return []map[string]any{
		{
			"key":         "basic",
			"title":       "Live Data (Basic)",
			"heading":     "Antarctic Explorer",
			"description": "A demonstration of real-time temperature readings in Antarctica.",
			"caption":     "Warmer than usual",
			"capacity":    1,
			"range":       map[string]any{"lo": -18.0, "hi": -16.0},
		},
		{
			"key":         "custom",
			"title":       "Custom Live Data Dashboard",
			"heading":     "Real-Time Data Explorer",
			"description": "A custom dashboard to simulate and display live temperature readings.",
			"capacity":    10,
			"range":       map[string]any{"lo": -10.0, "hi": 35.0},
			"unit_select": true,
			"table":       true,
			"trend":       true,
			"links": []map[string]any{
				{"label": "GitHub Source", "url": "https://github.com/moseskoroma/cintel-05-cintel"},
				{"label": "Deployed App", "url": "https://moseskoroma.github.io/cintel-05-cintel/"},
			},
		},
	}
}
