// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

package trusted

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// CurrencyTable maps an ISO currency code to its EUR multiplier. The rates
// are static, not live quotes; they exist to make price ranges comparable,
// not to settle invoices.
type CurrencyTable map[string]float64

// DefaultRates returns the built-in conversion table. A YAML file configured
// via formatting.rates_file replaces it entirely.
func DefaultRates() CurrencyTable {
	return CurrencyTable{
		"EUR": 1.0,
		"USD": 0.95,
		"GBP": 1.16,
		"CAD": 0.69,
		"AED": 0.26,
		"AUD": 0.60,
		"NZD": 0.57,
		"CZK": 0.04,
		"MXN": 0.048,
		"PLN": 0.22,
		"DKK": 0.13,
		"NOK": 0.088,
		"SEK": 0.086,
		"ZAR": 0.049,
	}
}

// LoadRates reads a currency table from a YAML file of "CODE: multiplier"
// pairs.
func LoadRates(path string) (CurrencyTable, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read rates file %s: %w", path, err)
	}

	rates := CurrencyTable{}
	if err := k.Unmarshal("", &rates); err != nil {
		return nil, fmt.Errorf("failed to parse rates file %s: %w", path, err)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("rates file %s defines no currencies", path)
	}
	for code, rate := range rates {
		if rate <= 0 {
			return nil, fmt.Errorf("rates file %s: non-positive rate for %s", path, code)
		}
	}
	return rates, nil
}
