package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/kitops-ml/kitfile/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys.
const (
	KeyKitfile       = "kitfile"
	KeySuppressEmpty = "suppress_empty"
	KeyLogLevel      = "log_level"
	KeyAuthor        = "author"
)

// Keys lists every supported configuration key.
var Keys = []string{KeyKitfile, KeySuppressEmpty, KeyLogLevel, KeyAuthor}

var defaults = map[string]any{
	KeyKitfile:       "Kitfile",
	KeySuppressEmpty: true,
	KeyLogLevel:      "warn",
	KeyAuthor:        "",
}

// Dir returns the path to the config directory (~/.kitfile/). KITFILE_HOME
// overrides it.
func Dir() string {
	if dir := os.Getenv(branding.EnvVar("home")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.kitfile/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// GetBool returns a boolean config value by key.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// LogLevel returns the configured log level, falling back to warn when the
// stored value is not a level name.
func LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(Get(KeyLogLevel))); err != nil {
		return slog.LevelWarn
	}
	return l
}

// All returns every supported key with its effective value.
func All() map[string]string {
	out := make(map[string]string, len(Keys))
	for _, k := range Keys {
		out[k] = Get(k)
	}
	return out
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	typed, err := validate(key, value)
	if err != nil {
		return err
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, typed)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

func validate(key, value string) (any, error) {
	if !slices.Contains(Keys, key) {
		return nil, fmt.Errorf("unknown config key %q (supported: %s)", key, strings.Join(Keys, ", "))
	}
	switch key {
	case KeySuppressEmpty:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		return b, nil
	case KeyLogLevel:
		var l slog.Level
		if err := l.UnmarshalText([]byte(value)); err != nil {
			return nil, fmt.Errorf("%s must be one of debug, info, warn, error, got %q", key, value)
		}
		return strings.ToLower(value), nil
	case KeyKitfile:
		if value == "" {
			return nil, fmt.Errorf("%s must not be empty", key)
		}
	}
	return value, nil
}
