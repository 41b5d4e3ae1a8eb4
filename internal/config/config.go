// Package config provides Viper-based configuration loading for the rules engine.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Options holds the optional-rule toggles that change how tests are built
// and resolved. Each maps to a table-level house rule; all default to the
// rules-as-written behaviour.
type Options struct {
	// AutoFillAdvantage adds +10 per advantage point to test prefills.
	AutoFillAdvantage bool `mapstructure:"auto_fill_advantage"`
	// CapAdvantageIB caps advantage at the initiative bonus instead of 10.
	CapAdvantageIB bool `mapstructure:"cap_advantage_ib"`
	// RangeAutoCalc applies range-band modifiers from measured distance
	// when exactly one target is selected.
	RangeAutoCalc bool `mapstructure:"range_auto_calc"`
	// DefaultDifficultyAverage starts tests at "average" difficulty outside
	// a structured conflict and "challenging" inside one. When false, every
	// test starts at "challenging".
	DefaultDifficultyAverage bool `mapstructure:"default_difficulty_average"`
	// DangerousCrits scales critical severity by how far below zero wounds
	// the hit would have gone.
	DangerousCrits bool `mapstructure:"dangerous_crits"`
	// DangerousCritsMod is the per-point multiplier used by DangerousCrits.
	DangerousCritsMod int `mapstructure:"dangerous_crits_mod"`
	// ExtendedSL0 treats SL 0 on an extended test as +1 on success and
	// -1 on failure.
	ExtendedSL0 bool `mapstructure:"extended_sl0"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level engine configuration.
type Config struct {
	Options Options       `mapstructure:"options"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateOptions(c.Options); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateOptions(o Options) error {
	if o.DangerousCritsMod < 0 {
		return fmt.Errorf("options.dangerous_crits_mod must be >= 0, got %d", o.DangerousCritsMod)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with GRIMCORE_ prefix
	v.SetEnvPrefix("GRIMCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the rules-as-written configuration with console logging.
//
// Postcondition: Default().Validate() == nil.
func Default() Config {
	return Config{
		Options: Options{
			AutoFillAdvantage: true,
			DangerousCritsMod: 10,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("options.auto_fill_advantage", true)
	v.SetDefault("options.cap_advantage_ib", false)
	v.SetDefault("options.range_auto_calc", false)
	v.SetDefault("options.default_difficulty_average", false)
	v.SetDefault("options.dangerous_crits", false)
	v.SetDefault("options.dangerous_crits_mod", 10)
	v.SetDefault("options.extended_sl0", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
