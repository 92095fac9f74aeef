package srs

import (
	"time"

	"github.com/phrazzld/scry-sync/internal/domain"
)

// Params defines all configurable parameters for the scheduling algorithm.
// The exact numbers are product-tuning knobs; callers should rely on the
// relations between them (growth on success, reset on lapse) rather than
// the specific defaults.
type Params struct {
	// Core limits
	MinEaseFactor float64
	MaxEaseFactor float64

	// Per-rating ease factor adjustments, applied before clamping.
	EaseAdjustment map[domain.PerformanceRating]float64

	// Per-rating interval modifiers, applied on top of the ease factor
	// for reviews after the first.
	IntervalModifier map[domain.PerformanceRating]float64

	// Fixed intervals for a card's first-ever review, per rating tier.
	// There is no prior interval to multiply, so these bootstrap the
	// schedule directly.
	BootstrapIntervals map[domain.PerformanceRating]time.Duration

	// MinimumInterval is the interval a card resets to on a lapse, and
	// the floor for any computed interval.
	MinimumInterval time.Duration

	// MaximumInterval caps interval growth.
	MaximumInterval time.Duration
}

// ParamsConfig allows overriding the defaults when creating a Params
// instance. Zero values keep the corresponding default.
type ParamsConfig struct {
	MinEaseFactor float64
	MaxEaseFactor float64

	ForgotEasePenalty float64 // subtracted on a lapse; positive value
	EasyEaseBonus     float64 // added on the top rating

	HardIntervalModifier float64
	GoodIntervalModifier float64
	EasyIntervalModifier float64

	BootstrapHardInterval time.Duration
	BootstrapGoodInterval time.Duration
	BootstrapEasyInterval time.Duration

	MinimumInterval time.Duration
	MaximumInterval time.Duration
}

// NewDefaultParams creates a Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: 1.3,
		MaxEaseFactor: 2.5,

		// Ease decreases on a lapse, grows slightly on the top rating
		// and is unchanged for the middle tiers.
		EaseAdjustment: map[domain.PerformanceRating]float64{
			domain.RatingForgot: -0.20,
			domain.RatingHard:   0.0,
			domain.RatingGood:   0.0,
			domain.RatingEasy:   0.15,
		},

		IntervalModifier: map[domain.PerformanceRating]float64{
			domain.RatingHard: 0.8,  // dampen growth
			domain.RatingGood: 1.0,  // ease factor directly
			domain.RatingEasy: 1.15, // extra boost
		},

		BootstrapIntervals: map[domain.PerformanceRating]time.Duration{
			domain.RatingHard: 12 * time.Hour,
			domain.RatingGood: 24 * time.Hour,
			domain.RatingEasy: 4 * 24 * time.Hour,
		},

		MinimumInterval: 24 * time.Hour,
		MaximumInterval: 365 * 24 * time.Hour,
	}
}

// NewParams creates a Params instance with custom configuration.
// Unset (zero) config fields keep their defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}

	if config.ForgotEasePenalty > 0 {
		params.EaseAdjustment[domain.RatingForgot] = -config.ForgotEasePenalty
	}
	if config.EasyEaseBonus > 0 {
		params.EaseAdjustment[domain.RatingEasy] = config.EasyEaseBonus
	}

	if config.HardIntervalModifier > 0 {
		params.IntervalModifier[domain.RatingHard] = config.HardIntervalModifier
	}
	if config.GoodIntervalModifier > 0 {
		params.IntervalModifier[domain.RatingGood] = config.GoodIntervalModifier
	}
	if config.EasyIntervalModifier > 0 {
		params.IntervalModifier[domain.RatingEasy] = config.EasyIntervalModifier
	}

	if config.BootstrapHardInterval > 0 {
		params.BootstrapIntervals[domain.RatingHard] = config.BootstrapHardInterval
	}
	if config.BootstrapGoodInterval > 0 {
		params.BootstrapIntervals[domain.RatingGood] = config.BootstrapGoodInterval
	}
	if config.BootstrapEasyInterval > 0 {
		params.BootstrapIntervals[domain.RatingEasy] = config.BootstrapEasyInterval
	}

	if config.MinimumInterval > 0 {
		params.MinimumInterval = config.MinimumInterval
	}
	if config.MaximumInterval > 0 {
		params.MaximumInterval = config.MaximumInterval
	}

	return params
}
