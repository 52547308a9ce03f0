package config

import (
	"fmt"

	"linkport/core"
	"linkport/pkg/number"

	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/config"
	"github.com/shopspring/decimal"
)

// Load load config file
func Load(cfgFile string, cfg *Config) error {
	config.AutomaticLoadEnv("LINKPORT")
	if err := config.LoadYaml(cfgFile, cfg); err != nil {
		return err
	}

	defaults(cfg)
	return Validate(cfg)
}

// Validate reject chains that can not be booted
func Validate(cfg *Config) error {
	seen := map[uint64]bool{}
	for _, c := range cfg.Chains {
		if c.Selector == 0 {
			return fmt.Errorf("chain %q: selector required", c.Name)
		}

		if seen[c.Selector] {
			return fmt.Errorf("chain %d: duplicated", c.Selector)
		}
		seen[c.Selector] = true

		for _, addr := range []string{c.Port, c.FeeAsset} {
			if _, ok := core.NormalizeAddress(addr); !ok {
				return fmt.Errorf("chain %d: invalid address %q", c.Selector, addr)
			}
		}

		if c.PriceEndpoint != "" && !govalidator.IsURL(c.PriceEndpoint) {
			return fmt.Errorf("chain %d: invalid price endpoint %q", c.Selector, c.PriceEndpoint)
		}

		ltv, threshold := number.Decimal(c.MaxLTV), number.Decimal(c.LiquidationThreshold)
		if !ltv.IsPositive() || ltv.GreaterThan(threshold) || threshold.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("chain %d: invalid max ltv %q or liquidation threshold %q", c.Selector, c.MaxLTV, c.LiquidationThreshold)
		}
	}

	return nil
}
