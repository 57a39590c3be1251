// Package config loads the YAML configuration shared by the relay server and
// the headless client.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config root of the configuration file.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Chat   ChatConfig   `yaml:"chat"`
	Log    LogConfig    `yaml:"log"`
	Events EventsConfig `yaml:"events"`
	Client ClientConfig `yaml:"client"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	SendQueue       int           `yaml:"send_queue"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	MaxMessageBytes int64         `yaml:"max_message_bytes"`
}

// ChatConfig limits apply per session.
type ChatConfig struct {
	MaxLength    int           `yaml:"max_length"`
	RateMessages int           `yaml:"rate_messages"`
	RateWindow   time.Duration `yaml:"rate_window"`
	History      int           `yaml:"history"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Level      string `yaml:"level"`
	Console    bool   `yaml:"console"`
}

// EventsConfig enables the NATS lifecycle tap when NATSURL is set.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// ClientConfig holds the reconciliation and local-movement tunables.
type ClientConfig struct {
	Interpolation       float64       `yaml:"interpolation"`
	RotationSpeed       float64       `yaml:"rotation_speed"`
	ExtrapolationWeight float64       `yaml:"extrapolation_weight"`
	MoveInterval        time.Duration `yaml:"move_interval"`
	MovementSpeed       float64       `yaml:"movement_speed"`
	JumpSpeed           float64       `yaml:"jump_speed"`
	GroundThreshold     float64       `yaml:"ground_threshold"`
	GracePeriod         time.Duration `yaml:"grace_period"`
	RejectStale         bool          `yaml:"reject_stale"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			SendQueue:       64,
			WriteTimeout:    5 * time.Second,
			ReadTimeout:     60 * time.Second,
			PingInterval:    25 * time.Second,
			MaxMessageBytes: 1 << 16,
		},
		Chat: ChatConfig{
			MaxLength:    500,
			RateMessages: 5,
			RateWindow:   5 * time.Second,
			History:      50,
		},
		Log: LogConfig{
			File:       "snowfield.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Level:      "debug",
		},
		Events: EventsConfig{Subject: "snowfield.events"},
		Client: ClientConfig{
			Interpolation:       0.15,
			RotationSpeed:       0.5,
			ExtrapolationWeight: 0.5,
			MoveInterval:        100 * time.Millisecond,
			MovementSpeed:       5,
			JumpSpeed:           8,
			GroundThreshold:     0.3,
			GracePeriod:         100 * time.Millisecond,
		},
	}
}

// Load reads a YAML file on top of Default. An empty path falls back to
// SNOWFIELD_CONFIG; when that is unset too the defaults are returned.
// SNOWFIELD_ADDR overrides server.addr.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("SNOWFIELD_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.Server.Addr = addrWithEnvFallback(cfg.Server.Addr, "SNOWFIELD_ADDR")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the relay cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.SendQueue <= 0:
		return fmt.Errorf("server.send_queue must be positive, got %d", c.Server.SendQueue)
	case c.Server.PingInterval <= 0 || c.Server.ReadTimeout <= c.Server.PingInterval:
		return fmt.Errorf("server.ping_interval must be positive and below read_timeout, got %s / %s",
			c.Server.PingInterval, c.Server.ReadTimeout)
	case c.Chat.MaxLength <= 0:
		return fmt.Errorf("chat.max_length must be positive, got %d", c.Chat.MaxLength)
	case c.Chat.RateMessages <= 0 || c.Chat.RateWindow <= 0:
		return fmt.Errorf("chat rate must be positive, got %d per %s", c.Chat.RateMessages, c.Chat.RateWindow)
	case c.Chat.History <= 0:
		return fmt.Errorf("chat.history must be positive, got %d", c.Chat.History)
	case c.Client.Interpolation <= 0 || c.Client.Interpolation >= 1:
		return fmt.Errorf("client.interpolation must be in (0,1), got %v", c.Client.Interpolation)
	}
	return nil
}

// addrWithEnvFallback prefers the env value when present.
func addrWithEnvFallback(configured, envVar string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return configured
}
