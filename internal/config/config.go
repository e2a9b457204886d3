// Package config manages application configuration from various sources.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Data defines storage configuration.
type Data struct {
	Directory string `json:"directory,omitempty"`
}

// Archive defines how snapshots are located and fetched.
type Archive struct {
	HistoryDays    int    `json:"historyDays,omitempty"`
	MaxMementos    int    `json:"maxMementos,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
	TimeMapURL     string `json:"timeMapUrl,omitempty"`
	UserAgentsURL  string `json:"userAgentsUrl,omitempty"`
	UserAgent      string `json:"userAgent,omitempty"`
	CacheMinutes   int    `json:"cacheMinutes,omitempty"`
}

// Server defines the local web UI listener.
type Server struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Config is the main configuration structure for the application.
type Config struct {
	Data       Data    `json:"data"`
	WorkingDir string  `json:"wd,omitempty"`
	Debug      bool    `json:"debug,omitempty"`
	Archive    Archive `json:"archive"`
	Server     Server  `json:"server"`
}

const (
	defaultDataDirectory = ".waydiffer"
	defaultLogLevel      = "info"
	appName              = "waydiffer"

	defaultHistoryDays    = 365
	defaultMaxMementos    = 100
	defaultTimeoutSeconds = 120
	defaultCacheMinutes   = 15

	defaultTimeMapURL    = "http://web.archive.org/web/timemap/link/"
	defaultUserAgentsURL = "https://raw.githubusercontent.com/microlinkhq/top-user-agents/master/src/index.json"
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// Global configuration instance
var cfg *Config

// Load initializes the configuration from environment variables and config
// files. If debug is true, debug mode is enabled and log level is set to
// debug. It returns an error if configuration loading fails.
func Load(workingDir string, debug bool) (*Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	cfg = &Config{
		WorkingDir: workingDir,
	}

	configureViper()
	setDefaults(debug)

	// Read global config
	if err := readConfig(viper.ReadInConfig()); err != nil {
		return cfg, err
	}

	// Load and merge local config
	mergeLocalConfig(workingDir)

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	defaultLevel := slog.LevelInfo
	if cfg.Debug {
		defaultLevel = slog.LevelDebug
	}
	slog.SetLogLoggerLevel(defaultLevel)

	if err := Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// configureViper sets up viper's configuration paths and environment variables.
func configureViper() {
	viper.SetConfigName(fmt.Sprintf(".%s", appName))
	viper.SetConfigType("json")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	viper.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.AutomaticEnv()
}

// setDefaults configures default values for configuration options.
func setDefaults(debug bool) {
	viper.SetDefault("data.directory", defaultDataDirectory)
	viper.SetDefault("archive.historyDays", defaultHistoryDays)
	viper.SetDefault("archive.maxMementos", defaultMaxMementos)
	viper.SetDefault("archive.timeoutSeconds", defaultTimeoutSeconds)
	viper.SetDefault("archive.timeMapUrl", defaultTimeMapURL)
	viper.SetDefault("archive.userAgentsUrl", defaultUserAgentsURL)
	viper.SetDefault("archive.userAgent", defaultUserAgent)
	viper.SetDefault("archive.cacheMinutes", defaultCacheMinutes)
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8787)

	if debug {
		viper.SetDefault("debug", true)
		viper.Set("log.level", "debug")
	} else {
		viper.SetDefault("debug", false)
		viper.SetDefault("log.level", defaultLogLevel)
	}
}

// readConfig handles the result of reading a configuration file.
func readConfig(err error) error {
	if err == nil {
		return nil
	}

	// It's okay if the config file doesn't exist
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return nil
	}

	return fmt.Errorf("failed to read config: %w", err)
}

// mergeLocalConfig loads and merges configuration from the local directory.
func mergeLocalConfig(workingDir string) {
	local := viper.New()
	local.SetConfigName(fmt.Sprintf(".%s", appName))
	local.SetConfigType("json")
	local.AddConfigPath(workingDir)

	if err := local.ReadInConfig(); err == nil {
		viper.MergeConfigMap(local.AllSettings())
	}
}

// Validate checks if the configuration is valid and applies defaults where
// needed.
func Validate() error {
	if cfg == nil {
		return fmt.Errorf("config not loaded")
	}

	if cfg.Archive.HistoryDays < 1 {
		cfg.Archive.HistoryDays = defaultHistoryDays
	}
	if cfg.Archive.MaxMementos < 1 {
		cfg.Archive.MaxMementos = defaultMaxMementos
	}
	if cfg.Archive.TimeoutSeconds < 1 {
		cfg.Archive.TimeoutSeconds = defaultTimeoutSeconds
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	return nil
}

// Get returns the current configuration.
// It's safe to call this function multiple times.
func Get() *Config {
	return cfg
}

// WorkingDirectory returns the current working directory from the configuration.
func WorkingDirectory() string {
	if cfg == nil {
		panic("config not loaded")
	}
	return cfg.WorkingDir
}

// Timeout returns the archive fetch timeout as a duration.
func (a Archive) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// CacheMaxAge returns how long cached snapshots stay fresh.
func (a Archive) CacheMaxAge() time.Duration {
	return time.Duration(a.CacheMinutes) * time.Minute
}

// Reset clears the loaded configuration. Only used by tests.
func Reset() {
	cfg = nil
	viper.Reset()
}
