// Package common provides shared utilities across the application.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTicker is returned for empty or malformed ticker input.
var ErrInvalidTicker = errors.New("invalid ticker")

// Ticker represents a parsed country-qualified ticker.
// Format: CODE:COUNTRY (e.g., "AAPL:US", "BHP:AU")
type Ticker struct {
	// Code is the security code (e.g., "AAPL", "BRK.B")
	Code string
	// Country is the provider country code (e.g., "US", "AU")
	Country string
	// Raw is the original ticker string
	Raw string
}

// CountryCodes are the provider's supported country suffixes.
var CountryCodes = map[string]bool{
	"US": true,
	"CA": true,
	"MM": true, // Mexico
	"LN": true, // London
	"AU": true,
	"NZ": true,
	"DE": true,
	"FR": true,
	"JP": true,
	"HK": true,
	"SG": true,
}

// ExchangeToCountry maps exchange-style prefixes to provider country codes,
// so "NASDAQ:AAPL" and "ASX:BHP" are accepted as well.
var ExchangeToCountry = map[string]string{
	"NYSE":   "US",
	"NASDAQ": "US",
	"AMEX":   "US",
	"TSX":    "CA",
	"LSE":    "LN",
	"ASX":    "AU",
	"NZX":    "NZ",
	"XETRA":  "DE",
	"TYO":    "JP",
	"HKEX":   "HK",
	"SGX":    "SG",
}

// DefaultCountry is used when a ticker has no country qualifier.
var DefaultCountry = "US"

// ParseTicker parses a ticker string.
// Supports formats:
//   - "AAPL:US" -> Code="AAPL", Country="US"
//   - "AAPL.US" -> Code="AAPL", Country="US" (dot separator, known country only)
//   - "NASDAQ:AAPL" -> Code="AAPL", Country="US" (exchange prefix)
//   - "aapl" -> Code="AAPL", Country=DefaultCountry
func ParseTicker(ticker string) (Ticker, error) {
	raw := ticker
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return Ticker{}, fmt.Errorf("%w: empty", ErrInvalidTicker)
	}

	code, country := ticker, DefaultCountry

	if left, right, ok := strings.Cut(ticker, ":"); ok {
		switch {
		case CountryCodes[right]:
			code, country = left, right
		case ExchangeToCountry[left] != "":
			code, country = right, ExchangeToCountry[left]
		default:
			code, country = left, right
		}
	} else if idx := strings.LastIndex(ticker, "."); idx > 0 && CountryCodes[ticker[idx+1:]] {
		code, country = ticker[:idx], ticker[idx+1:]
	}

	if !validCode(code) || !validCode(country) {
		return Ticker{}, fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
	}

	return Ticker{Code: code, Country: country, Raw: raw}, nil
}

// String returns the provider symbol, e.g. "AAPL:US".
func (t Ticker) String() string {
	if t.Code == "" {
		return ""
	}
	return t.Code + ":" + t.Country
}

// NormalizeTicker parses and re-renders a ticker in provider form.
func NormalizeTicker(ticker string) (string, error) {
	parsed, err := ParseTicker(ticker)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// ParseTickers parses a list of ticker strings, skipping invalid entries.
func ParseTickers(tickers []string) []Ticker {
	result := make([]Ticker, 0, len(tickers))
	for _, t := range tickers {
		if parsed, err := ParseTicker(t); err == nil {
			result = append(result, parsed)
		}
	}
	return result
}

func validCode(s string) bool {
	if s == "" || len(s) > 20 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}
