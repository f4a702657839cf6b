// Package core has the extraction, validation, scoring and insight logic for kpilens.
package core

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// currencySymbols are stripped before a currency token is parsed as a number.
var currencySymbols = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", "USD", "", "EUR", "", "GBP", "")

var percentSuffixRe = regexp.MustCompile(`(?i)^(.*?)\s*(?:%|percent|pct)\s*\.?$`)

// dateLayouts are tried in order when normalizing a date token.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"02-Jan-2006",
}

// twoDigitYearLayouts are date layouts whose parsed year needs century
// resolution toward "now".
var twoDigitYearLayouts = []string{
	"01/02/06",
	"1/2/06",
	"Jan 2, 06",
}

// ParseNumber normalizes a raw numeric token. Thousands separators and
// surrounding whitespace are tolerated; the result must be finite.
func ParseNumber(token string) (float64, error) {
	s := strings.TrimSpace(token)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("%w: empty numeric token", ErrUnparsableToken)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrUnparsableToken, token)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrUnparsableToken, token)
	}
	return v, nil
}

// ParsePercent normalizes a percentage token into the 0-100 domain.
// "75%", "75 percent" and "75" all yield 75. A bare decimal literal with a
// point and a value <= 1 (e.g. "0.75") is treated as a 0-1 domain value and
// multiplied by 100.
func ParsePercent(token string) (float64, error) {
	s := strings.TrimSpace(token)
	hadSuffix := false
	if m := percentSuffixRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
		hadSuffix = true
	}
	v, err := ParseNumber(s)
	if err != nil {
		return 0, err
	}
	if !hadSuffix && v <= 1 && strings.Contains(s, ".") {
		v *= 100
	}
	return v, nil
}

// ParseCurrency strips currency symbols and thousands separators before the
// numeric parse.
func ParseCurrency(token string) (float64, error) {
	s := currencySymbols.Replace(strings.TrimSpace(token))
	return ParseNumber(s)
}

// ParseDate normalizes a date token across the common textual forms into a
// calendar date (UTC, truncated to day). Ambiguous two-digit years resolve
// to the century nearest to now.
func ParseDate(token string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date token", ErrUnparsableToken)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDay(t), nil
		}
	}
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDay(nearestCentury(t, now)), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a recognized date", ErrUnparsableToken, token)
}

// nearestCentury shifts a two-digit-year date into the century whose year is
// closest to now.
func nearestCentury(t, now time.Time) time.Time {
	best := t
	bestDist := absInt(t.Year() - now.Year())
	for _, shift := range []int{-100, 100} {
		cand := t.AddDate(shift, 0, 0)
		if d := absInt(cand.Year() - now.Year()); d < bestDist {
			best, bestDist = cand, d
		}
	}
	return best
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// clamp bounds v to the [lo, hi] interval.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
