package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains base directory and daemon bind configuration.
type Paths struct {
	BaseDir     string `toml:"base_dir"`
	DownloadDir string `toml:"download_dir"`
	LogDir      string `toml:"log_dir"`
	APIBind     string `toml:"api_bind"`
}

// Library contains the named subdirectories of the media library.
type Library struct {
	MoviesDir string `toml:"movies_dir"`
	TVDir     string `toml:"tv_dir"`
	AnimeDir  string `toml:"anime_dir"`
	MusicDir  string `toml:"music_dir"`
	OtherDir  string `toml:"other_dir"`
}

// Downloads contains admission and transfer tuning.
type Downloads struct {
	MaxConcurrent             int   `toml:"max_concurrent"`
	MaxDurationSeconds        int   `toml:"max_duration_seconds"`
	LargeFileThresholdMiB     int64 `toml:"large_file_threshold_mib"`
	ProgressIntervalSeconds   int   `toml:"progress_interval_seconds"`
	LargeProgressIntervalSecs int   `toml:"large_progress_interval_seconds"`
	DrainTimeoutSeconds       int   `toml:"drain_timeout_seconds"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Confidence contains the fuzzy-match gate thresholds.
type Confidence struct {
	LowThreshold  float64 `toml:"low_threshold"`
	HighThreshold float64 `toml:"high_threshold"`
	AuditLogName  string  `toml:"audit_log_name"`
}

// Sessions contains interactive dialog session tuning.
type Sessions struct {
	TTLMinutes          int `toml:"ttl_minutes"`
	SweepIntervalMinute int `toml:"sweep_interval_minutes"`
}

// Chat contains the requester allow-list and watcher settings.
type Chat struct {
	AdminIDs     []int64 `toml:"admin_ids"`
	WatchEnabled bool    `toml:"watch_downloads"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration document.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Library    Library    `toml:"library"`
	Downloads  Downloads  `toml:"downloads"`
	TMDB       TMDB       `toml:"tmdb"`
	Confidence Confidence `toml:"confidence"`
	Sessions   Sessions   `toml:"sessions"`
	Chat       Chat       `toml:"chat"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return expandPath("~/.config/shelve/config.toml")
}

// Load reads the configuration from path (or the default location when path
// is empty), applies defaults for unset values, and validates the result.
// A missing file yields the defaults rather than an error; the resolved path
// is returned either way.
func Load(path string) (*Config, string, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultConfigPath()
	}
	resolved = expandPath(resolved)

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, resolved, fmt.Errorf("read config %s: %w", resolved, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, err
	}
	return &cfg, resolved, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	path = expandPath(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates every directory the daemon writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DownloadDir,
		c.Paths.LogDir,
		c.MoviesPath(),
		c.TVPath(),
		c.AnimePath(),
		c.MusicPath(),
		c.OtherPath(),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// MoviesPath returns the absolute movies library directory.
func (c *Config) MoviesPath() string { return filepath.Join(c.Paths.BaseDir, c.Library.MoviesDir) }

// TVPath returns the absolute TV library directory.
func (c *Config) TVPath() string { return filepath.Join(c.Paths.BaseDir, c.Library.TVDir) }

// AnimePath returns the absolute anime library directory.
func (c *Config) AnimePath() string { return filepath.Join(c.Paths.BaseDir, c.Library.AnimeDir) }

// MusicPath returns the absolute music library directory.
func (c *Config) MusicPath() string { return filepath.Join(c.Paths.BaseDir, c.Library.MusicDir) }

// OtherPath returns the absolute fallback/unsorted directory.
func (c *Config) OtherPath() string { return filepath.Join(c.Paths.BaseDir, c.Library.OtherDir) }

// AuditLogPath returns the low-confidence audit log file location.
func (c *Config) AuditLogPath() string {
	return filepath.Join(c.Paths.BaseDir, c.Confidence.AuditLogName)
}

// DatabasePath returns the SQLite document store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.LogDir, "shelve.db")
}

// LockFilePath returns the daemon single-instance lock file location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.LogDir, "shelved.lock")
}

// LargeFileThresholdBytes converts the large-file threshold to bytes.
func (c *Config) LargeFileThresholdBytes() int64 {
	return c.Downloads.LargeFileThresholdMiB * 1024 * 1024
}

// MaxDownloadDuration returns the per-download wall clock limit.
func (c *Config) MaxDownloadDuration() time.Duration {
	return time.Duration(c.Downloads.MaxDurationSeconds) * time.Second
}

// ProgressInterval returns the notification interval for a download of the
// given size class.
func (c *Config) ProgressInterval(large bool) time.Duration {
	if large {
		return time.Duration(c.Downloads.LargeProgressIntervalSecs) * time.Second
	}
	return time.Duration(c.Downloads.ProgressIntervalSeconds) * time.Second
}

// DrainTimeout returns the bounded wait used during shutdown.
func (c *Config) DrainTimeout() time.Duration {
	return time.Duration(c.Downloads.DrainTimeoutSeconds) * time.Second
}

// SessionTTL returns the dialog session time-to-live.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Sessions.TTLMinutes) * time.Minute
}

// SessionSweepInterval returns the optional periodic sweep cadence.
func (c *Config) SessionSweepInterval() time.Duration {
	return time.Duration(c.Sessions.SweepIntervalMinute) * time.Minute
}

// IsAdmin reports whether the requester id is on the allow-list. An empty
// allow-list admits nobody.
func (c *Config) IsAdmin(id int64) bool {
	for _, admin := range c.Chat.AdminIDs {
		if admin == id {
			return true
		}
	}
	return false
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
