package config

import "github.com/phrazzld/scry-sync/internal/srs"

// SchedulerParams converts the SRS configuration into scheduler parameters.
func (c SRSConfig) SchedulerParams() *srs.Params {
	return srs.NewParams(srs.ParamsConfig{
		MinEaseFactor:         c.MinEaseFactor,
		MaxEaseFactor:         c.MaxEaseFactor,
		ForgotEasePenalty:     c.ForgotEasePenalty,
		EasyEaseBonus:         c.EasyEaseBonus,
		BootstrapHardInterval: c.BootstrapHardInterval,
		BootstrapGoodInterval: c.BootstrapGoodInterval,
		BootstrapEasyInterval: c.BootstrapEasyInterval,
		MinimumInterval:       c.MinimumInterval,
		MaximumInterval:       c.MaximumInterval,
	})
}
