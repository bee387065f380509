package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
server:
  addr: ":9090"
  shutdown_timeout: "5s"

log:
  level: "debug"
  format: "json"

consent:
  store_path: "/tmp/consent.db"
  retention_days: 7

location:
  probe_timeout: "10s"
  fixed_lat: 14.2486
  fixed_lon: 121.1258

capture:
  frame_width: 320
  frame_height: 240

zones:
  file: "/etc/punchgate/zones.yaml"

submit:
  mode: "http"
  url: "http://attendance-api.local/events"
`

func TestLoad_ValidYAML(t *testing.T) {
	path := writeYAML(t, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.Location.ProbeTimeout != 10*time.Second {
		t.Errorf("probe timeout: got %v", cfg.Location.ProbeTimeout)
	}
	if cfg.Submit.Mode != "http" {
		t.Errorf("submit mode: got %q", cfg.Submit.Mode)
	}
	if cfg.Capture.FrameWidth != 320 {
		t.Errorf("frame width: got %d", cfg.Capture.FrameWidth)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeYAML(t, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PUNCHGATE_ADDR", ":7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("env should override yaml, got %q", cfg.Server.Addr)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr: got %q", cfg.Server.Addr)
	}
	if cfg.Submit.Mode != "noop" {
		t.Errorf("default submit mode: got %q", cfg.Submit.Mode)
	}
	if cfg.Consent.RetentionDays != 7 {
		t.Errorf("default retention: got %d", cfg.Consent.RetentionDays)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for explicit missing file")
	}
}

func TestValidate_Rejections(t *testing.T) {
	base := func() *Config {
		return &Config{
			Consent:  ConsentConfig{RetentionDays: 7},
			Location: LocationConfig{ProbeTimeout: 10 * time.Second},
			Capture:  CaptureConfig{FrameWidth: 640, FrameHeight: 480},
			Submit:   SubmitConfig{Mode: "noop"},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero probe timeout", func(c *Config) { c.Location.ProbeTimeout = 0 }},
		{"zero retention", func(c *Config) { c.Consent.RetentionDays = 0 }},
		{"zero frame width", func(c *Config) { c.Capture.FrameWidth = 0 }},
		{"unknown submit mode", func(c *Config) { c.Submit.Mode = "carrier-pigeon" }},
		{"http without url", func(c *Config) { c.Submit.Mode = "http" }},
		{"kafka without brokers", func(c *Config) { c.Submit.Mode = "kafka" }},
		{"negative audit buffer", func(c *Config) { c.Audit.Buffer = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
