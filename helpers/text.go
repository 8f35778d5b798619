package helpers

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	percentRe     = regexp.MustCompile(`(\d{1,3})(?:\.\d+)?\s*%+`)
	percentWordRe = regexp.MustCompile(`(?i)(\d{1,3})\s*percent`)
	validityRe    = regexp.MustCompile(`(?i)(valid|till|until|through)\s+([A-Za-z]{3,9}\s+\d{1,2},?\s+\d{4})`)
)

// dateLayouts accepted for validity dates like "December 31, 2025".
var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}

// CleanText collapses runs of whitespace and trims the result.
func CleanText(value string) string {
	if value == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(value, " "))
}

// ParseDiscountPercent extracts a 1-3 digit percentage from free text. The
// "%" marker is preferred; the word "percent" is a fallback. Returns 0 when
// nothing parseable is found.
func ParseDiscountPercent(text string) float64 {
	if text == "" {
		return 0
	}
	if m := percentRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v
	}
	if m := percentWordRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v
	}
	return 0
}

// ParseValidity extracts a "valid/till/until/through <Month Day, Year>"
// expiry date. Absence yields nil (treated as always valid downstream).
func ParseValidity(text string) (validFrom, validTo *time.Time) {
	m := validityRe.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, m[2]); err == nil {
			return nil, &t
		}
	}
	return nil, nil
}
