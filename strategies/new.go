package strategies

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/quantden/sigtrader/risk"
)

// EngineConfig bundles everything needed to construct any variant. It is
// immutable after construction; variants copy what they need.
type EngineConfig struct {
	Risk          risk.Params         `yaml:"risk" json:"risk"`
	Exits         ExitConfig          `yaml:"exits" json:"exits"`
	MeanReversion MeanReversionConfig `yaml:"mean_reversion" json:"mean_reversion"`
	Momentum      MomentumConfig      `yaml:"momentum" json:"momentum"`

	// Logger receives discarded-opportunity entries. Not part of the
	// serialized configuration; nil means no logging.
	Logger *zap.Logger `yaml:"-" json:"-"`
}

// Validate checks every section. Errors here are fatal at startup.
func (c EngineConfig) Validate() error {
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if err := c.MeanReversion.Defaults().Validate(); err != nil {
		return err
	}
	if err := c.Momentum.Defaults().Validate(); err != nil {
		return err
	}
	if c.Exits.BreakevenTriggerPct < 0 {
		return fmt.Errorf("exits: breakeven_trigger_pct must be >= 0, got %v", c.Exits.BreakevenTriggerPct)
	}
	for _, lock := range c.Exits.ProfitLocks {
		if lock.TriggerPct <= 0 || lock.KeepFraction <= 0 || lock.KeepFraction >= 1 {
			return fmt.Errorf("exits: invalid profit lock (trigger=%v keep=%v)", lock.TriggerPct, lock.KeepFraction)
		}
	}
	return nil
}

// New maps a configuration-selected strategy identifier to a constructed
// variant. The set is closed; there is no ambient registry to mutate.
func New(id string, cfg EngineConfig) (Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch id {
	case "mean-reversion":
		return NewMeanReversion(cfg.MeanReversion, cfg.Risk, cfg.Exits, cfg.Logger), nil
	case "momentum":
		return NewMomentum(cfg.Momentum, cfg.Risk, cfg.Exits, cfg.Logger), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want mean-reversion or momentum)", id)
	}
}

// Names lists the available strategy identifiers.
func Names() []string {
	return []string{"mean-reversion", "momentum"}
}
