// Package config loads the application configuration from a YAML file,
// merged over built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can carry values like "10s" or "24h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full application configuration.
type Config struct {
	// DBPath is the SQLite database location.
	DBPath string `yaml:"db_path"`

	Log       LogConfig       `yaml:"log"`
	Providers ProvidersConfig `yaml:"providers"`
	Cache     CacheConfig     `yaml:"cache"`
	Quota     QuotaConfig     `yaml:"quota"`
	Engine    EngineConfig    `yaml:"engine"`
}

type LogConfig struct {
	// Format is "text" or "json".
	Format string `yaml:"format"`
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level"`
}

type ProvidersConfig struct {
	// MyMemoryEmail is the contact address sent with MyMemory requests; it
	// raises the anonymous rate limit.
	MyMemoryEmail string `yaml:"mymemory_email"`
	// LibreTranslateURL is the primary instance, tried before the public
	// mirrors. Empty means mirrors only.
	LibreTranslateURL string `yaml:"libretranslate_url"`
	// RequestTimeout bounds each HTTP attempt.
	RequestTimeout Duration `yaml:"request_timeout"`
}

type CacheConfig struct {
	MaxSize int      `yaml:"max_size"`
	MaxAge  Duration `yaml:"max_age"`
}

type QuotaConfig struct {
	MyMemoryDailyLimit       int `yaml:"mymemory_daily_limit"`
	LibreTranslateDailyLimit int `yaml:"libretranslate_daily_limit"`
}

type EngineConfig struct {
	// AttemptTimeout bounds one provider attempt inside the fallback chain.
	AttemptTimeout Duration `yaml:"attempt_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath: "data/lingochat.db",
		Log:    LogConfig{Format: "text", Level: "info"},
		Providers: ProvidersConfig{
			RequestTimeout: Duration(10 * time.Second),
		},
		Cache: CacheConfig{
			MaxSize: 2000,
			MaxAge:  Duration(24 * time.Hour),
		},
		Quota: QuotaConfig{},
		Engine: EngineConfig{
			AttemptTimeout: Duration(15 * time.Second),
		},
	}
}

// Load reads path and merges it over the defaults. A missing file is not an
// error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
