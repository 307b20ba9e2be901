package config

import (
	"time"
)

// LogConfig holds logging configuration for the countme CLI
type LogConfig struct {
	Level        string `mapstructure:"level"`         // debug, info, warn, error
	Format       string `mapstructure:"format"`        // text, json
	Output       string `mapstructure:"output"`        // stdout, stderr, or file path
	FilePath     string `mapstructure:"file_path"`     // path to log file (in addition to output)
	MaxSizeMB    int    `mapstructure:"max_size_mb"`   // max size in MB before rotation
	MaxBackups   int    `mapstructure:"max_backups"`   // max number of old log files to keep
	MaxAgeDays   int    `mapstructure:"max_age_days"`  // max days to retain old log files
	EnableCaller bool   `mapstructure:"enable_caller"` // include source file/line in logs
}

// ReposConfig holds the repository catalog locations
type ReposConfig struct {
	Dirs []string `mapstructure:"dirs"` // directories scanned for *.repo files, in order
}

// CookieConfig holds the counting-window cookie location
type CookieConfig struct {
	Path string `mapstructure:"path"`
}

// PlatformConfig holds the deployment-mode gate
type PlatformConfig struct {
	// MarkerPath must exist on the host for the tool to run at all.
	MarkerPath string `mapstructure:"marker_path"`
}

// ReleaseConfig holds the OS release metadata location
type ReleaseConfig struct {
	Path string `mapstructure:"path"`
}

// HTTPConfig holds outbound request settings
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// HistoryConfig holds the local run-journal settings.
// The journal never leaves the machine; it only backs `countme status`.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// OutputConfig holds output formatting options
type OutputConfig struct {
	Format string `mapstructure:"format"` // table, json, yaml, quiet
}

// Config is the full countme configuration
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Repos    ReposConfig    `mapstructure:"repos"`
	Cookie   CookieConfig   `mapstructure:"cookie"`
	Platform PlatformConfig `mapstructure:"platform"`
	Release  ReleaseConfig  `mapstructure:"release"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	History  HistoryConfig  `mapstructure:"history"`
	Output   OutputConfig   `mapstructure:"output"`
}

// Default returns a Config populated with the shipped defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Repos: ReposConfig{
			Dirs: []string{"/etc/yum.repos.d", "/etc/distro.repos.d"},
		},
		Cookie: CookieConfig{
			Path: "/var/lib/countme/cookie.json",
		},
		Platform: PlatformConfig{
			MarkerPath: "/run/ostree-booted",
		},
		Release: ReleaseConfig{
			Path: "/etc/os-release",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "/var/lib/countme/history.db",
		},
		Output: OutputConfig{
			Format: "table",
		},
	}
}
