package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// normalize fills derived values and expands user paths. Called by Load
// before validation.
func (c *Config) normalize() {
	c.Paths.BaseDir = expandPath(strings.TrimSpace(c.Paths.BaseDir))
	if c.Paths.DownloadDir == "" {
		c.Paths.DownloadDir = filepath.Join(c.Paths.BaseDir, defaultDownloadDirName)
	} else {
		c.Paths.DownloadDir = expandPath(c.Paths.DownloadDir)
	}
	if c.Paths.LogDir == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.BaseDir, defaultLogDirName)
	} else {
		c.Paths.LogDir = expandPath(c.Paths.LogDir)
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Paths.BaseDir == "" {
		return fmt.Errorf("config: base_dir is required")
	}
	if c.Downloads.MaxConcurrent < 1 {
		return fmt.Errorf("config: max_concurrent must be at least 1, got %d", c.Downloads.MaxConcurrent)
	}
	if c.Downloads.MaxDurationSeconds < 1 {
		return fmt.Errorf("config: max_duration_seconds must be positive, got %d", c.Downloads.MaxDurationSeconds)
	}
	if c.Confidence.LowThreshold < 0 || c.Confidence.LowThreshold > 1 {
		return fmt.Errorf("config: low_threshold must be in [0,1], got %v", c.Confidence.LowThreshold)
	}
	if c.Confidence.HighThreshold < 0 || c.Confidence.HighThreshold > 1 {
		return fmt.Errorf("config: high_threshold must be in [0,1], got %v", c.Confidence.HighThreshold)
	}
	if c.Confidence.LowThreshold > c.Confidence.HighThreshold {
		return fmt.Errorf("config: low_threshold %v exceeds high_threshold %v",
			c.Confidence.LowThreshold, c.Confidence.HighThreshold)
	}
	if c.Sessions.TTLMinutes < 1 {
		return fmt.Errorf("config: session ttl_minutes must be positive, got %d", c.Sessions.TTLMinutes)
	}
	if c.TMDB.BaseURL == "" {
		return fmt.Errorf("config: tmdb base_url is required")
	}
	return nil
}
