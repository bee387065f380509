package config

import (
	"fmt"
	"slices"
)

var submitModes = []string{"noop", "http", "kafka"}

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Location.ProbeTimeout <= 0 {
		return fmt.Errorf("location.probe_timeout must be > 0 (got %v)", c.Location.ProbeTimeout)
	}
	if c.Consent.RetentionDays <= 0 {
		return fmt.Errorf("consent.retention_days must be > 0 (got %d)", c.Consent.RetentionDays)
	}
	if c.Capture.FrameWidth <= 0 || c.Capture.FrameHeight <= 0 {
		return fmt.Errorf("capture frame dimensions must be > 0 (got %dx%d)",
			c.Capture.FrameWidth, c.Capture.FrameHeight)
	}

	if !slices.Contains(submitModes, c.Submit.Mode) {
		return fmt.Errorf("submit.mode must be one of %v (got %q)", submitModes, c.Submit.Mode)
	}
	switch c.Submit.Mode {
	case "http":
		if c.Submit.URL == "" {
			return fmt.Errorf("submit.url is required when submit.mode is http")
		}
	case "kafka":
		if c.Submit.Brokers == "" {
			return fmt.Errorf("submit.brokers is required when submit.mode is kafka")
		}
	}

	if c.Audit.Buffer < 0 {
		return fmt.Errorf("audit.buffer must be >= 0 (got %d)", c.Audit.Buffer)
	}
	return nil
}
