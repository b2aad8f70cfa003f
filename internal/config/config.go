// Package config provides Viper-based defaults for imgbatch.
//
// Values come from (lowest to highest precedence) built-in defaults, an
// optional .imgbatch.yaml file, and IMGBATCH_* environment variables.
// Command-line flags override all of them. The file is only ever read.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"imgbatch/internal/processor"
)

type Config struct {
	Convert ConvertConfig `mapstructure:"convert"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ConvertConfig holds the defaults for the convert command.
type ConvertConfig struct {
	Format     string `mapstructure:"format"`
	Quality    int    `mapstructure:"quality"`
	OutputDir  string `mapstructure:"output_dir"`
	KeepAspect bool   `mapstructure:"keep_aspect"`
	Overwrite  bool   `mapstructure:"overwrite"`
	AutoOrient bool   `mapstructure:"auto_orient"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from cfgFile (or the default search paths when
// empty) and the environment. A missing default file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".imgbatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/imgbatch")
	}

	v.SetEnvPrefix("IMGBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("convert.format", "JPEG")
	v.SetDefault("convert.quality", 85)
	v.SetDefault("convert.output_dir", "output_images")
	v.SetDefault("convert.keep_aspect", true)
	v.SetDefault("convert.overwrite", false)
	v.SetDefault("convert.auto_orient", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// validate checks values that can be judged without a batch. Quality is left
// to the batch precondition check so flags and config share one rule.
func validate(cfg *Config) error {
	if _, err := processor.ParseFormat(cfg.Convert.Format); err != nil {
		return err
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be text or json)", cfg.Logging.Format)
	}

	return nil
}
