// Package pricing implements the deterministic rate/price solver that turns
// parsed lender rate sheets into borrower-facing quotes.
package pricing

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Config carries every tunable the engine reads. It is passed in at
// construction so tests can vary margin/targets without global state.
type Config struct {
	// LenderMargin is the broker's spread in price points, subtracted from
	// wholesale price before target comparison. Internal-only; never shown
	// to the borrower.
	LenderMargin float64 `yaml:"lender_margin"`

	// Target net prices for the three-tier product design.
	ParTarget     float64 `yaml:"par_target"`     // "no cost" option
	BuydownTarget float64 `yaml:"buydown_target"` // "pay points for a lower rate"
	CreditTarget  float64 `yaml:"credit_target"`  // "take a credit for a higher rate"

	// MinFallbackRates is the trust threshold for external extraction: below
	// this many tuples the fallback result is discarded as low-confidence.
	MinFallbackRates int `yaml:"min_fallback_rates"`

	// Double-pass validation epsilons.
	RateEpsilon    float64 `yaml:"rate_epsilon"`
	PaymentEpsilon float64 `yaml:"payment_epsilon"`

	// APRMethod selects "newton" (iterative, higher fidelity) or "approx"
	// (closed-form effective rate).
	APRMethod string `yaml:"apr_method"`

	// MockBaseRate anchors the terminal mock-quote generator.
	MockBaseRate float64 `yaml:"mock_base_rate"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		LenderMargin:     2.50,
		ParTarget:        100.0,
		BuydownTarget:    98.5,
		CreditTarget:     100.5,
		MinFallbackRates: 5,
		RateEpsilon:      0.001,
		PaymentEpsilon:   0.01,
		APRMethod:        "newton",
		MockBaseRate:     6.99,
	}
}

// LoadConfig reads a yaml config file, overlaying the defaults; a missing
// file just returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read pricing config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse pricing config: %w", err)
	}
	return cfg, nil
}
