package testsupport

import (
	"path/filepath"
	"testing"

	"shelve/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp directory per test,
// with every directory created up front.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.DownloadDir = filepath.Join(base, "Downloads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.TMDB.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithAdminIDs sets the allow-list on the test config.
func WithAdminIDs(ids ...int64) ConfigOption {
	return func(c *config.Config) {
		c.Chat.AdminIDs = ids
	}
}

// WithMaxConcurrent overrides the admission cap on the test config.
func WithMaxConcurrent(n int) ConfigOption {
	return func(c *config.Config) {
		c.Downloads.MaxConcurrent = n
	}
}
