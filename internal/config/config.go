// Package config provides process configuration (flags, environment, .env)
// and the live-reloadable analysis and auto skip settings.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config holds the process configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Storage  StorageConfig
	Server   ServerConfig
	Media    MediaConfig
	Settings SettingsConfig
	AutoSkip AutoSkipConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig selects where detected segments are persisted.
type StorageConfig struct {
	DataPath string // base directory for the database and the batch lock file
	Backend  string // badger or sqlite
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration // 0 disables; the SSE stream is long lived
	IdleTimeout  time.Duration
}

// MediaConfig locates the ffmpeg tools used to sample media files.
type MediaConfig struct {
	FFmpegPath  string
	FFprobePath string
}

// SettingsConfig locates the live settings file.
type SettingsConfig struct {
	File         string
	PollInterval time.Duration
}

// AutoSkipConfig tunes the skip coordinator's timer.
type AutoSkipConfig struct {
	TickInterval time.Duration
}

// LoadConfig loads configuration from the process arguments with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load is LoadConfig with an explicit flag set and argument list.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for segment storage")
	backend := fs.String("store-backend", "", "Segment store backend (badger, sqlite)")
	settingsFile := fs.String("settings", "", "Path to the TOML settings file")
	serverPort := fs.String("port", "", "Server port (default: 8095)")
	ffmpegPath := fs.String("ffmpeg-path", "", "Path to ffmpeg binary")
	ffprobePath := fs.String("ffprobe-path", "", "Path to ffprobe binary")
	pollInterval := fs.String("settings-poll-interval", "", "How often the skip coordinator re-reads settings")
	tickInterval := fs.String("skip-tick-interval", "", "Auto skip timer period")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env file is not an error.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
			Backend:  strings.ToLower(getConfigValue(*backend, "STORE_BACKEND", BackendBadger)),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8095"),
		},
		Media: MediaConfig{
			FFmpegPath:  getConfigValue(*ffmpegPath, "FFMPEG_PATH", "ffmpeg"),
			FFprobePath: getConfigValue(*ffprobePath, "FFPROBE_PATH", "ffprobe"),
		},
		Settings: SettingsConfig{
			File: getConfigValue(*settingsFile, "SETTINGS_FILE", ""),
		},
	}

	var err error
	if cfg.Settings.PollInterval, err = getDurationConfigValue(*pollInterval, "SETTINGS_POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.AutoSkip.TickInterval, err = getDurationConfigValue(*tickInterval, "SKIP_TICK_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = getDurationConfigValue("", "SERVER_READ_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue("", "SERVER_IDLE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.Backend != BackendBadger && c.Storage.Backend != BackendSQLite {
		return fmt.Errorf("invalid store backend: %s (must be badger or sqlite)", c.Storage.Backend)
	}
	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.AutoSkip.TickInterval <= 0 {
		return errors.New("skip tick interval must be positive")
	}
	if c.Settings.PollInterval <= 0 {
		return errors.New("settings poll interval must be positive")
	}
	return nil
}

// LockPath is the file guarding analysis batches across processes.
func (c *Config) LockPath() string {
	return filepath.Join(c.Storage.DataPath, "analysis.lock")
}

func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	if c.Storage.DataPath, err = expandPath(c.Storage.DataPath, filepath.Join(homeDir, ".skipper")); err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	if c.Settings.File, err = expandPath(c.Settings.File, filepath.Join(c.Storage.DataPath, "skipper.toml")); err != nil {
		return fmt.Errorf("invalid settings file: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}
	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey string, defaultValue time.Duration) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- operator supplied path
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}
