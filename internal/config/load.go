package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config file and environment
// variables. Environment variables use the SCRY_SYNC_ prefix with
// underscores for nesting (SCRY_SYNC_LOGGING_LEVEL) and take precedence
// over values from config files.
// Returns a populated Config struct or an error if loading/validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("scry-sync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/scry-sync")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything has a default.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SCRY_SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")

	v.SetDefault("srs.min_ease_factor", 1.3)
	v.SetDefault("srs.max_ease_factor", 2.5)
	v.SetDefault("srs.forgot_ease_penalty", 0.20)
	v.SetDefault("srs.easy_ease_bonus", 0.15)
	v.SetDefault("srs.bootstrap_hard_interval", 12*time.Hour)
	v.SetDefault("srs.bootstrap_good_interval", 24*time.Hour)
	v.SetDefault("srs.bootstrap_easy_interval", 4*24*time.Hour)
	v.SetDefault("srs.minimum_interval", 24*time.Hour)
	v.SetDefault("srs.maximum_interval", 365*24*time.Hour)

	v.SetDefault("sync.pending_timeout", 2*time.Minute)
	v.SetDefault("sync.tombstone_retention", 24*time.Hour)
	v.SetDefault("sync.orphan_sweep_interval", 30*time.Second)
	v.SetDefault("sync.tombstone_purge_interval", time.Hour)

	v.SetDefault("review.batch_size", 20)
	v.SetDefault("review.due_threshold", 10)
	v.SetDefault("review.due_check_interval", time.Minute)
	v.SetDefault("review.commit_attempts", 3)
	v.SetDefault("review.commit_delay", 250*time.Millisecond)
}
