package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/tradecraft-labs/fxstate/internal/types"
	"github.com/tradecraft-labs/fxstate/pkg/errors"
)

// TierParams holds the configured parameters and scoring weight of one
// indicator for one analysis tier.
type TierParams struct {
	// Weight used by the scoring engine. Defaults to 1 when omitted; an
	// explicit zero is kept and excludes the indicator from scoring.
	Weight *float64 `yaml:"weight"`
	// Parameters are indicator-specific defaults, e.g. {"period": 14}.
	Parameters map[string]float64 `yaml:"parameters"`
}

// IndicatorEntry is the per-indicator section of the configuration file:
// a category plus a tier -> params mapping.
type IndicatorEntry struct {
	Category types.IndicatorCategory `yaml:"category" validate:"required,oneof=trend momentum volatility"`
	Tiers    map[types.Tier]TierParams `yaml:"tiers" validate:"required,min=1,dive,keys,oneof=macro daily minute,endkeys"`
}

// IndicatorConfig is the static indicator/tier configuration loaded at
// startup. It is versioned externally as configuration and is not mutable at
// runtime.
type IndicatorConfig struct {
	Indicators map[types.IndicatorType]IndicatorEntry `yaml:"indicators" validate:"required,min=1,dive"`
}

// LoadIndicatorConfig reads and validates the YAML configuration at path.
func LoadIndicatorConfig(path string) (*IndicatorConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "read indicator config %s", path)
	}

	var cfg IndicatorConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "parse indicator config %s", path)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid indicator config", err)
	}

	return &cfg, nil
}

// Params returns the configured tier parameters for an indicator.
// ok is false when the indicator has no entry for the tier; such indicators
// contribute nothing to scoring.
func (c *IndicatorConfig) Params(name string, tier types.Tier) (TierParams, bool) {
	entry, found := c.Indicators[types.IndicatorType(name)]
	if !found {
		return TierParams{}, false
	}

	params, found := entry.Tiers[tier]
	if !found {
		return TierParams{}, false
	}

	return params, true
}

// Weight returns the scoring weight for an indicator on a tier. Indicators
// present in configuration but without an explicit weight default to 1; an
// explicit zero weight is kept as is.
func (c *IndicatorConfig) Weight(name string, tier types.Tier) (float64, bool) {
	params, ok := c.Params(name, tier)
	if !ok {
		return 0, false
	}

	if params.Weight == nil {
		return 1, true
	}

	return *params.Weight, true
}
