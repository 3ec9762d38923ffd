package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/foodmes-backend/internal/platform/envutil"
)

// Config carries the tunables of the quality engine. Values come from an
// optional YAML file and can be overridden by environment variables.
type Config struct {
	Audit struct {
		// FailClosed aborts the primary mutation when the audit write
		// fails. Default false: audit failures are logged and the
		// mutation is kept.
		FailClosed bool `yaml:"fail_closed"`
	} `yaml:"audit"`

	Heartbeat struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"heartbeat"`

	Signature struct {
		// ReauthTimeout bounds the fallback full re-authentication.
		// On timeout the signature counts as unverified.
		ReauthTimeout time.Duration `yaml:"reauth_timeout"`
	} `yaml:"signature"`

	Redis struct {
		Addr    string `yaml:"addr"`
		Channel string `yaml:"channel"`
	} `yaml:"redis"`
}

func Default() Config {
	var c Config
	c.Heartbeat.Enabled = true
	c.Heartbeat.Interval = 5 * time.Minute
	c.Signature.ReauthTimeout = 5 * time.Second
	c.Redis.Channel = "quality-events"
	return c
}

// Load reads the YAML file at path (when it exists) over the defaults,
// then applies env overrides.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &c); err != nil {
				return c, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	c.Audit.FailClosed = envutil.Bool("AUDIT_FAIL_CLOSED", c.Audit.FailClosed)
	c.Heartbeat.Enabled = envutil.Bool("HEARTBEAT_ENABLED", c.Heartbeat.Enabled)
	c.Heartbeat.Interval = envutil.Duration("HEARTBEAT_INTERVAL", c.Heartbeat.Interval)
	c.Signature.ReauthTimeout = envutil.Duration("SIGNATURE_REAUTH_TIMEOUT", c.Signature.ReauthTimeout)
	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Channel = envutil.String("REDIS_CHANNEL", c.Redis.Channel)

	if c.Heartbeat.Interval <= 0 {
		c.Heartbeat.Interval = 5 * time.Minute
	}
	if c.Signature.ReauthTimeout <= 0 {
		c.Signature.ReauthTimeout = 5 * time.Second
	}
	return c, nil
}
