package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	NASA     NASAConfig     `json:"nasa"`
	Daily    DailyConfig    `json:"daily"`
	Store    StoreConfig    `json:"store"`
	Logging  LoggingConfig  `json:"logging"`
}

type TelegramConfig struct {
	// Token can be left empty in the file and supplied via TELEGRAM_TOKEN.
	Token          string `json:"token,omitempty"`
	PollTimeout    string `json:"poll_timeout,omitempty"` // Go duration string
	SendRatePerSec int    `json:"send_rate_per_sec,omitempty"`
}

type NASAConfig struct {
	// APIKey can be left empty in the file and supplied via NASA_API_KEY.
	APIKey string `json:"api_key,omitempty"`

	// Endpoint overrides, mainly for tests. Empty means the public defaults.
	APIBase    string `json:"api_base,omitempty"`
	ImagesBase string `json:"images_base,omitempty"`
	TriviaBase string `json:"trivia_base,omitempty"`

	Timeout string `json:"timeout,omitempty"` // Go duration string
}

// DailyConfig controls the scheduled daily post.
type DailyConfig struct {
	Enabled  bool   `json:"enabled"`
	PostTime string `json:"post_time,omitempty"` // "HH:MM", default "12:10"
	Timezone string `json:"timezone,omitempty"`  // default "UTC"
}

// StoreConfig controls where channel registrations persist.
//
// Driver values:
//   - "file": single JSON object, atomically rewritten on change (default)
//   - "sqlite": SQLite database file (sqlite build tag)
type StoreConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level,omitempty"`
	Console bool              `json:"console"`
	File    LoggingFileConfig `json:"file,omitempty"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// applyEnv lets required credentials come from the environment (and win
// over file values).
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")); v != "" {
		c.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("NASA_API_KEY")); v != "" {
		c.NASA.APIKey = v
	}
}

// ParseDurationField parses an optional Go duration string, reporting the
// config path on error.
func ParseDurationField(path, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}

// ParseHHMM parses a "HH:MM" wall-clock time.
func ParseHHMM(raw string) (hour, minute int, err error) {
	raw = strings.TrimSpace(raw)
	if _, err := fmt.Sscanf(raw, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid time %q (want HH:MM)", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q (want HH:MM)", raw)
	}
	return hour, minute, nil
}
