package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "tg-token"
  poll_timeout: "10s"
nasa:
  api_key: "DEMO_KEY"
daily:
  enabled: true
  post_time: "12:10"
store:
  driver: "file"
  path: "./channels.json"
logging:
  level: "debug"
  console: true
`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Telegram.Token != "tg-token" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.NASA.APIKey != "DEMO_KEY" {
		t.Fatalf("api_key = %q", cfg.NASA.APIKey)
	}
	if !cfg.Daily.Enabled || cfg.Daily.PostTime != "12:10" {
		t.Fatalf("daily = %+v", cfg.Daily)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging.level = %q", cfg.Logging.Level)
	}
}

func TestParseJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"nasa":{"api_key":"k"},"daily":{"enabled":false}}`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.NASA.APIKey != "k" || cfg.Daily.Enabled {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
nasa:
  api_key: "k"
  api_keey: "typo"
`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatalf("Parse accepted a misspelled field")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	path := writeConfig(t, "config.json", `{"daily":{"enabled":true}} {"extra":1}`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatalf("Parse accepted trailing data")
	}
}

func TestEnvOverridesFileCredentials(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "env-token")
	t.Setenv("NASA_API_KEY", "env-key")
	path := writeConfig(t, "config.yaml", `
telegram:
  token: "file-token"
nasa:
  api_key: "file-key"
`)
	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("token = %q; env did not win", cfg.Telegram.Token)
	}
	if cfg.NASA.APIKey != "env-key" {
		t.Fatalf("api_key = %q; env did not win", cfg.NASA.APIKey)
	}
}

func TestSubscribePublishUnsubscribe(t *testing.T) {
	m := NewManager("unused.json")
	ch := m.Subscribe(1)

	cfg := &Config{}
	m.publish(cfg)
	select {
	case got := <-ch:
		if got != cfg {
			t.Fatalf("subscriber received wrong config")
		}
	default:
		t.Fatalf("subscriber did not receive the published config")
	}

	// A full queue keeps the newest config.
	stale := &Config{Logging: LoggingConfig{Level: "stale"}}
	newest := &Config{Logging: LoggingConfig{Level: "newest"}}
	m.publish(stale)
	m.publish(newest)
	if got := <-ch; got.Logging.Level != "newest" {
		t.Fatalf("slow subscriber got %q; want newest", got.Logging.Level)
	}

	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatalf("channel not closed after Unsubscribe")
	}
	// Publishing after Unsubscribe must not panic.
	m.publish(cfg)
}

func TestParseDurationField(t *testing.T) {
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty = %v, %v", d, err)
	}
	if d, err := ParseDurationField("x", "1m30s"); err != nil || d != 90*time.Second {
		t.Fatalf("1m30s = %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatalf("negative duration accepted")
	}
	if _, err := ParseDurationField("x", "soon"); err == nil {
		t.Fatalf("garbage duration accepted")
	}
	if d, err := ParseDurationOrDefault("x", "", 7*time.Second); err != nil || d != 7*time.Second {
		t.Fatalf("default = %v, %v", d, err)
	}
}

func TestParseHHMM(t *testing.T) {
	cases := []struct {
		in    string
		h, m  int
		isErr bool
	}{
		{"12:10", 12, 10, false},
		{"0:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{" 9:05 ", 9, 5, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"12", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tc := range cases {
		h, m, err := ParseHHMM(tc.in)
		if tc.isErr {
			if err == nil {
				t.Errorf("ParseHHMM(%q) accepted invalid input", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHHMM(%q): %v", tc.in, err)
			continue
		}
		if h != tc.h || m != tc.m {
			t.Errorf("ParseHHMM(%q) = %d:%d; want %d:%d", tc.in, h, m, tc.h, tc.m)
		}
	}
}
