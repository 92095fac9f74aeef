// Package config defines and loads the engine's configuration.
package config

import "time"

// Config holds all engine configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" validate:"required"`
	SRS     SRSConfig     `mapstructure:"srs"     validate:"required"`
	Sync    SyncConfig    `mapstructure:"sync"    validate:"required"`
	Review  ReviewConfig  `mapstructure:"review"  validate:"required"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// SRSConfig contains the scheduler tuning parameters. The values are
// product knobs; the scheduler only depends on the relations between them.
type SRSConfig struct {
	MinEaseFactor     float64 `mapstructure:"min_ease_factor"     validate:"required,gt=1"`
	MaxEaseFactor     float64 `mapstructure:"max_ease_factor"     validate:"required,gtfield=MinEaseFactor"`
	ForgotEasePenalty float64 `mapstructure:"forgot_ease_penalty" validate:"gte=0"`
	EasyEaseBonus     float64 `mapstructure:"easy_ease_bonus"     validate:"gte=0"`

	BootstrapHardInterval time.Duration `mapstructure:"bootstrap_hard_interval" validate:"required,gt=0"`
	BootstrapGoodInterval time.Duration `mapstructure:"bootstrap_good_interval" validate:"required,gt=0"`
	BootstrapEasyInterval time.Duration `mapstructure:"bootstrap_easy_interval" validate:"required,gt=0"`

	MinimumInterval time.Duration `mapstructure:"minimum_interval" validate:"required,gt=0"`
	MaximumInterval time.Duration `mapstructure:"maximum_interval" validate:"required,gtfield=MinimumInterval"`
}

// SyncConfig contains reconciliation and cache maintenance settings.
type SyncConfig struct {
	// PendingTimeout bounds how long an event may wait for its parent
	// before being dropped as an orphan.
	PendingTimeout time.Duration `mapstructure:"pending_timeout" validate:"required,gt=0"`

	// TombstoneRetention is how long deleted entities are remembered to
	// reject late stale updates.
	TombstoneRetention time.Duration `mapstructure:"tombstone_retention" validate:"required,gt=0"`

	OrphanSweepInterval    time.Duration `mapstructure:"orphan_sweep_interval"    validate:"required,gt=0"`
	TombstonePurgeInterval time.Duration `mapstructure:"tombstone_purge_interval" validate:"required,gt=0"`
}

// ReviewConfig contains review session settings.
type ReviewConfig struct {
	// BatchSize is the maximum number of due cards per normal session.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0"`

	// DueThreshold is the due-card count at which a deck triggers a
	// notification event. Zero disables the check.
	DueThreshold int `mapstructure:"due_threshold" validate:"gte=0"`

	// DueCheckInterval is how often due counts are re-evaluated against
	// the wall clock.
	DueCheckInterval time.Duration `mapstructure:"due_check_interval" validate:"required,gt=0"`

	CommitAttempts uint          `mapstructure:"commit_attempts" validate:"required,gt=0"`
	CommitDelay    time.Duration `mapstructure:"commit_delay"    validate:"required,gt=0"`
}
