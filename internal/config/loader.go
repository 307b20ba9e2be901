// Package config loads countme configuration from the standard search
// paths with environment overrides. The config file is optional; every
// setting has a usable default so the tool can run with no file at all.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const AppName = "countme"

// configSearchPaths returns the paths to search for config files in order of
// precedence (later paths have higher priority in Viper)
func configSearchPaths() []string {
	paths := []string{filepath.Join("/etc", AppName)}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", AppName))
	}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, cwd)
	}

	return paths
}

// newViper creates and configures a new Viper instance
func newViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	for _, path := range configSearchPaths() {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load loads the configuration, optionally from an explicit file path.
// A missing config file is not an error; a present but malformed one is.
func Load(cfgFile string) (*Config, error) {
	v := newViper()

	defaults := Default()
	setViperDefaults(v, defaults)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setViperDefaults sets default values in Viper from a config struct
func setViperDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("log.output", c.Log.Output)
	v.SetDefault("log.file_path", c.Log.FilePath)
	v.SetDefault("log.max_size_mb", c.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", c.Log.MaxBackups)
	v.SetDefault("log.max_age_days", c.Log.MaxAgeDays)
	v.SetDefault("log.enable_caller", c.Log.EnableCaller)
	v.SetDefault("repos.dirs", c.Repos.Dirs)
	v.SetDefault("cookie.path", c.Cookie.Path)
	v.SetDefault("platform.marker_path", c.Platform.MarkerPath)
	v.SetDefault("release.path", c.Release.Path)
	v.SetDefault("http.timeout", c.HTTP.Timeout)
	v.SetDefault("history.enabled", c.History.Enabled)
	v.SetDefault("history.path", c.History.Path)
	v.SetDefault("output.format", c.Output.Format)
}

// ConfigFileUsed returns the config file path that was loaded, if any
func ConfigFileUsed() string {
	v := newViper()
	_ = v.ReadInConfig()
	return v.ConfigFileUsed()
}
