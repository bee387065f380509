package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Consent  ConsentConfig  `yaml:"consent"`
	Location LocationConfig `yaml:"location"`
	Capture  CaptureConfig  `yaml:"capture"`
	Zones    ZonesConfig    `yaml:"zones"`
	Submit   SubmitConfig   `yaml:"submit"`
	Audit    AuditConfig    `yaml:"audit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"PUNCHGATE_ADDR"             env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"PUNCHGATE_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// ConsentConfig holds consent store settings. An empty store path keeps the
// record in memory only.
type ConsentConfig struct {
	StorePath     string `yaml:"store_path"     env:"CONSENT_STORE_PATH"`
	RetentionDays int    `yaml:"retention_days" env:"CONSENT_RETENTION_DAYS" env-default:"7"`
}

// LocationConfig holds the locator wiring and probe budget. The fixed
// coordinate drives the built-in locator when no hardware integration is
// configured.
type LocationConfig struct {
	ProbeTimeout  time.Duration `yaml:"probe_timeout"  env:"LOCATION_PROBE_TIMEOUT" env-default:"10s"`
	FixedLat      float64       `yaml:"fixed_lat"      env:"LOCATION_FIXED_LAT"`
	FixedLon      float64       `yaml:"fixed_lon"      env:"LOCATION_FIXED_LON"`
	SimulateDelay time.Duration `yaml:"simulate_delay" env:"LOCATION_SIMULATE_DELAY"`
}

// CaptureConfig holds synthetic camera settings.
type CaptureConfig struct {
	FrameWidth  int `yaml:"frame_width"  env:"CAPTURE_FRAME_WIDTH"  env-default:"640"`
	FrameHeight int `yaml:"frame_height" env:"CAPTURE_FRAME_HEIGHT" env-default:"480"`
}

// ZonesConfig points at the geofence zone list file.
type ZonesConfig struct {
	File string `yaml:"file" env:"ZONES_FILE"`
}

// SubmitConfig selects where committed clock events are handed off.
type SubmitConfig struct {
	Mode    string        `yaml:"mode"    env:"SUBMIT_MODE"    env-default:"noop"`
	URL     string        `yaml:"url"     env:"SUBMIT_URL"`
	Timeout time.Duration `yaml:"timeout" env:"SUBMIT_TIMEOUT" env-default:"10s"`
	Brokers string        `yaml:"brokers" env:"SUBMIT_BROKERS"`
	Topic   string        `yaml:"topic"   env:"SUBMIT_TOPIC"   env-default:"attendance.events"`
}

// AuditConfig holds audit publisher settings. Buffer zero means synchronous
// emission.
type AuditConfig struct {
	Buffer int `yaml:"buffer" env:"AUDIT_BUFFER" env-default:"0"`
}
