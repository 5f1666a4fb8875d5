// Package config loads server settings from an optional YAML file and the
// environment. main autoloads .env before any of this runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/Zachkp/portfolio/internal/navigator"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PORTFOLIO_"

// Config holds all settings for the portfolio server.
type Config struct {
	Port        int    `koanf:"port"`
	DBPath      string `koanf:"db_path"`
	ContentPath string `koanf:"content_path"`
	LogLevel    string `koanf:"log_level"`
	LogFile     string `koanf:"log_file"`

	Navigation Navigation `koanf:"navigation"`
	SMTP       SMTP       `koanf:"smtp"`
	Admin      Admin      `koanf:"admin"`

	// SessionIdleMinutes is how long an unused page load is kept in memory.
	SessionIdleMinutes int `koanf:"session_idle_minutes"`
	// VisitRetentionDays bounds how long hashed visits are kept.
	VisitRetentionDays int `koanf:"visit_retention_days"`
}

// Navigation configures the section navigator.
type Navigation struct {
	DefaultSection   string   `koanf:"default_section"`
	AnimatedSections []string `koanf:"animated_sections"`
	CoverMS          int      `koanf:"cover_ms"`
	PreRevealMS      int      `koanf:"pre_reveal_ms"`
	RevealMS         int      `koanf:"reveal_ms"`
}

// SMTP configures the contact form mailer.
type SMTP struct {
	Host string `koanf:"host"`
	Port string `koanf:"port"`
	User string `koanf:"user"`
	Pass string `koanf:"pass"`
	To   string `koanf:"to"`
}

// Admin configures the analytics dashboard login.
type Admin struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:     8080,
		DBPath:   "data/portfolio.db",
		LogLevel: "info",
		LogFile:  "logs/portfolio.log",
		Navigation: Navigation{
			DefaultSection:   navigator.DefaultSection,
			AnimatedSections: []string{"about", "skills"},
			CoverMS:          400,
			PreRevealMS:      100,
			RevealMS:         800,
		},
		SMTP: SMTP{
			Host: "smtp.gmail.com",
			Port: "587",
		},
		Admin: Admin{
			Username: "admin",
			Password: "admin123",
		},
		SessionIdleMinutes: 30,
		VisitRetentionDays: 365,
	}
}

// Load reads path (if it exists), then overlays PORTFOLIO_* variables.
// Nested keys use a double underscore: PORTFOLIO_SMTP__HOST.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// PORT is what most hosts set
	if p := os.Getenv("PORT"); p != "" && !k.Exists("port") {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", p, err)
		}
		cfg.Port = n
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks that the configuration can run a server.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Navigation.DefaultSection == "" {
		return fmt.Errorf("navigation.default_section is required")
	}
	n := c.Navigation
	if n.CoverMS < 0 || n.PreRevealMS < 0 || n.RevealMS < 0 {
		return fmt.Errorf("navigation timings must be non-negative")
	}
	if c.SessionIdleMinutes <= 0 {
		return fmt.Errorf("session_idle_minutes must be positive")
	}
	if c.VisitRetentionDays <= 0 {
		return fmt.Errorf("visit_retention_days must be positive")
	}
	return nil
}

// Timings converts the configured waits for the navigator.
func (n Navigation) Timings() navigator.Timings {
	return navigator.Timings{
		CoverSettle:  time.Duration(n.CoverMS) * time.Millisecond,
		PreReveal:    time.Duration(n.PreRevealMS) * time.Millisecond,
		RevealSettle: time.Duration(n.RevealMS) * time.Millisecond,
	}
}

// SessionIdle returns the session idle limit.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// VisitRetention returns how long visits are kept.
func (c *Config) VisitRetention() time.Duration {
	return time.Duration(c.VisitRetentionDays) * 24 * time.Hour
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
