// Package config manages fspec configuration via viper. Settings come
// from .fspec/config.yaml (discovered by walking up from the working
// directory) and FSPEC_* environment variables, with env taking
// precedence over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys
const (
	KeySpecDir     = "spec-dir"     // spec tree scanned for features and coverage
	KeyLockTimeout = "lock-timeout" // max time to wait for the file lock
	KeyNoColor     = "no-color"     // disable styled terminal output
	KeyQuiet       = "quiet"        // suppress non-essential output
)

// v is the package-level viper instance, set up by Initialize.
var v *viper.Viper

// Initialize sets up viper with defaults, the optional project config
// file, and FSPEC_* environment variable overrides. A missing config
// file is not an error.
func Initialize() error {
	v = viper.New()

	v.SetDefault(KeySpecDir, "spec")
	v.SetDefault(KeyLockTimeout, "10s")
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyQuiet, false)

	v.SetEnvPrefix("FSPEC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if dir := findProjectConfigDir(); dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("reading %s: %w", filepath.Join(dir, "config.yaml"), err)
			}
		}
	}
	return nil
}

// findProjectConfigDir walks up from the working directory looking for a
// .fspec directory, the same way git discovers its repository root.
func findProjectConfigDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".fspec")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// GetString returns the string value for key, or "" before Initialize.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool returns the boolean value for key.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetDuration returns the duration value for key.
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set overrides a value for the current process, e.g. from a CLI flag.
func Set(key string, value interface{}) {
	if v == nil {
		return
	}
	v.Set(key, value)
}
