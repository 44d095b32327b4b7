// Package config loads testcdylib settings from .testcdylib.yaml,
// TESTCDYLIB_* environment variables and command-line flags, in rising
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TESTCDYLIB"

// FileName is the config file searched in the working and home directories.
const FileName = ".testcdylib"

// TraceConfig mirrors the --trace* flags.
type TraceConfig struct {
	Output    string `mapstructure:"output"`
	Level     string `mapstructure:"level"`
	Mode      string `mapstructure:"mode"`
	Format    string `mapstructure:"format"`
	RingSize  int    `mapstructure:"ring_size"`
	Heartbeat string `mapstructure:"heartbeat"`
}

// Config holds all runtime configuration for one invocation.
type Config struct {
	CargoPath  string      `mapstructure:"cargo_path"`
	UI         string      `mapstructure:"ui"`
	Quiet      bool        `mapstructure:"quiet"`
	Rustflags  []string    `mapstructure:"rustflags"`
	TargetRoot string      `mapstructure:"target_root"`
	Trace      TraceConfig `mapstructure:"trace"`
}

// SetDefaults registers built-in values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cargo_path", "")
	v.SetDefault("ui", "auto")
	v.SetDefault("quiet", false)
	v.SetDefault("rustflags", []string{"--cfg", "test_cdylib"})
	v.SetDefault("target_root", filepath.Join(os.TempDir(), "testcdylib"))
	v.SetDefault("trace.output", "")
	v.SetDefault("trace.level", "off")
	v.SetDefault("trace.mode", "stream")
	v.SetDefault("trace.format", "auto")
	v.SetDefault("trace.ring_size", 4096)
	v.SetDefault("trace.heartbeat", "0s")
}

// New returns a viper instance wired to the config file and environment.
// cfgFile overrides the default search when non-empty. A missing default
// config file is not an error.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	switch cfg.UI {
	case "auto", "on", "off":
	default:
		return Config{}, fmt.Errorf("invalid ui value %q (expected auto|on|off)", cfg.UI)
	}
	return cfg, nil
}
