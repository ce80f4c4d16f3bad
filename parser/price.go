package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Locale selects how thousands and decimal separators are read.
type Locale int

const (
	// LocaleUS reads "1,234.56": commas are thousands separators.
	LocaleUS Locale = iota
	// LocaleBR reads "1.234,56": dots are thousands separators, comma is decimal.
	LocaleBR
)

// PricePattern is one rule in a price cascade. The first capture group holds
// the amount.
type PricePattern struct {
	Name string
	Re   *regexp.Regexp
}

var (
	patternUSD       = PricePattern{Name: "usd", Re: regexp.MustCompile(`US\s?\$\s?([\d,\.]+)`)}
	patternBRL       = PricePattern{Name: "brl", Re: regexp.MustCompile(`R\$\s?([\d,\.]+)`)}
	patternJSONPrice = PricePattern{Name: "json_price", Re: regexp.MustCompile(`"price":\s?"([\d,\.]+)"`)}
	patternLoose     = PricePattern{Name: "loose_price", Re: regexp.MustCompile(`price["']?\s*:\s*["']?([\d,\.]+)`)}
)

// AliExpressPricePatterns lists the price rules for AliExpress pages in
// priority order.
func AliExpressPricePatterns() []PricePattern {
	return []PricePattern{patternUSD, patternBRL, patternJSONPrice, patternLoose}
}

// ShopeePricePatterns lists the price rules for Shopee pages in priority order.
func ShopeePricePatterns() []PricePattern {
	return []PricePattern{patternBRL, patternJSONPrice}
}

// PriceRule bundles a pattern cascade with how matched amounts are read and
// converted to BRL.
type PriceRule struct {
	Patterns []PricePattern
	Locale   Locale
	// Rate multiplies the parsed amount. Zero means no conversion.
	Rate float64
}

// FindPrice scans text with each pattern in order. For every pattern only the
// first match is considered; the first one that parses to a positive amount
// wins. It returns the formatted BRL price and the pattern that produced it.
func (r PriceRule) FindPrice(text string) (price string, pattern string, ok bool) {
	for _, p := range r.Patterns {
		match := p.Re.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		value, err := ParseAmount(match[1], r.Locale)
		if err != nil || value <= 0 {
			continue
		}
		if r.Rate > 0 {
			value *= r.Rate
		}
		return FormatBRL(value), p.Name, true
	}
	return "", "", false
}

// ParseAmount converts a matched amount to a number using the locale's
// separators.
func ParseAmount(raw string, locale Locale) (float64, error) {
	clean := strings.TrimSpace(raw)
	switch locale {
	case LocaleBR:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	default:
		clean = strings.ReplaceAll(clean, ",", "")
	}
	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return value, nil
}

// FormatBRL renders an amount as "R$ 1234,56".
func FormatBRL(value float64) string {
	return strings.ReplaceAll(fmt.Sprintf("R$ %.2f", value), ".", ",")
}
