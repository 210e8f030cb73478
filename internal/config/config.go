package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appDir        = "txtr"
	prefsFileName = "prefs.json"
	backupDirName = "txt_reader_backup"
)

type Config struct {
	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev console encoding, false => JSON
	LogFile   string // empty => logging disabled

	HTTPTimeout time.Duration // bound on a URL load
	Charset     string        // text encoding of loaded files, ex: "utf-8", "gb18030"

	PrefsFile string // flat key/value store holding the library
	BackupDir string // where library backups are written
}

// fileConfig mirrors Config for the optional YAML file.
type fileConfig struct {
	LogLevel    string `yaml:"log_level"`
	PrettyLog   *bool  `yaml:"pretty_log"`
	LogFile     string `yaml:"log_file"`
	HTTPTimeout string `yaml:"http_timeout"`
	Charset     string `yaml:"charset"`
	PrefsFile   string `yaml:"prefs_file"`
	BackupDir   string `yaml:"backup_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		LogLevel:    "info",
		PrettyLog:   false,
		HTTPTimeout: 30 * time.Second,
		Charset:     "utf-8",
		PrefsFile:   filepath.Join(configDir(home), prefsFileName),
		BackupDir:   filepath.Join(home, backupDirName),
	}
}

// Load starts from Default, overlays the YAML file named by TXTR_CONFIG if
// set, then applies TXTR_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("TXTR_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.LogLevel = getenv("TXTR_LOG_LEVEL", cfg.LogLevel)
	cfg.PrettyLog = mustBool("TXTR_PRETTY_LOG", cfg.PrettyLog)
	cfg.LogFile = getenv("TXTR_LOG_FILE", cfg.LogFile)
	cfg.HTTPTimeout = mustDuration("TXTR_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.Charset = getenv("TXTR_CHARSET", cfg.Charset)
	cfg.PrefsFile = getenv("TXTR_PREFS_FILE", cfg.PrefsFile)
	cfg.BackupDir = getenv("TXTR_BACKUP_DIR", cfg.BackupDir)

	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.PrettyLog != nil {
		c.PrettyLog = *fc.PrettyLog
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.HTTPTimeout != "" {
		d, err := time.ParseDuration(fc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("invalid http_timeout %q in %s: %w", fc.HTTPTimeout, path, err)
		}
		c.HTTPTimeout = d
	}
	if fc.Charset != "" {
		c.Charset = fc.Charset
	}
	if fc.PrefsFile != "" {
		c.PrefsFile = fc.PrefsFile
	}
	if fc.BackupDir != "" {
		c.BackupDir = fc.BackupDir
	}
	return nil
}

// configDir returns XDG_CONFIG_HOME/txtr or ~/.config/txtr.
func configDir(home string) string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	return filepath.Join(home, ".config", appDir)
}

// helpers
func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
