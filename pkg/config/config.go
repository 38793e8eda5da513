// Package config loads service configuration from a YAML file with
// FORMFILL_* environment overrides. Every value has a development default;
// deployments override what they need.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	ListenAddr    string `yaml:"listen_addr"`
	TargetFormURL string `yaml:"target_form_url"`
	UploadDir     string `yaml:"upload_dir"`
	Headless      bool   `yaml:"headless"`

	PageLoadTimeoutMS int `yaml:"page_load_timeout_ms"`
	LocatorTimeoutMS  int `yaml:"locator_timeout_ms"`
	RetryCount        int `yaml:"retry_count"`
	RetryBackoffMS    int `yaml:"retry_backoff_ms"`
	StepDelayMS       int `yaml:"step_delay_ms"`

	// Optional backends. Empty means disabled.
	RedisAddr string `yaml:"redis_addr"`
	NATSURL   string `yaml:"nats_url"`
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		ListenAddr:        ":8000",
		TargetFormURL:     "https://mendrika-alma.github.io/form-submission/",
		UploadDir:         "uploads",
		Headless:          true,
		PageLoadTimeoutMS: 30000,
		LocatorTimeoutMS:  5000,
		RetryCount:        2,
		RetryBackoffMS:    250,
		StepDelayMS:       80,
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envStr("FORMFILL_LISTEN_ADDR", &cfg.ListenAddr)
	envStr("FORMFILL_TARGET_FORM_URL", &cfg.TargetFormURL)
	envStr("FORMFILL_UPLOAD_DIR", &cfg.UploadDir)
	envBool("FORMFILL_HEADLESS", &cfg.Headless)
	envInt("FORMFILL_PAGE_LOAD_TIMEOUT_MS", &cfg.PageLoadTimeoutMS)
	envInt("FORMFILL_LOCATOR_TIMEOUT_MS", &cfg.LocatorTimeoutMS)
	envInt("FORMFILL_RETRY_COUNT", &cfg.RetryCount)
	envInt("FORMFILL_RETRY_BACKOFF_MS", &cfg.RetryBackoffMS)
	envInt("FORMFILL_STEP_DELAY_MS", &cfg.StepDelayMS)
	envStr("FORMFILL_REDIS_ADDR", &cfg.RedisAddr)
	envStr("FORMFILL_NATS_URL", &cfg.NATSURL)
}

func envStr(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// PageLoadTimeout returns the page-load bound as a duration.
func (c Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeoutMS) * time.Millisecond
}

// LocatorTimeout returns the per-locator bound as a duration.
func (c Config) LocatorTimeout() time.Duration {
	return time.Duration(c.LocatorTimeoutMS) * time.Millisecond
}

// RetryBackoff returns the base retry delay as a duration.
func (c Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// StepDelay returns the per-step settle pause as a duration.
func (c Config) StepDelay() time.Duration {
	return time.Duration(c.StepDelayMS) * time.Millisecond
}
