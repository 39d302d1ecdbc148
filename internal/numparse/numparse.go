// Package numparse extracts scaled numeric amounts from free-form user text.
//
// It understands the Indian numbering units customers actually type
// ("50 lakhs", "2 cr", "10k") as well as currency noise ("₹", "rs", "inr").
package numparse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRe   = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	currencyRe = regexp.MustCompile(`\b(rs|inr)\b`)
	lakhRe     = regexp.MustCompile(`\b(lakh|lakhs|lac|lacs|l)\b`)
	croreRe    = regexp.MustCompile(`\b(crore|crores|cr)\b`)
	// kiloRe matches a "k" suffix directly after the number ("10k", "10 k")
	// so that words like "ok" or "km" do not scale.
	kiloRe = regexp.MustCompile(`\d\s*k\b`)
)

// Scale multipliers for trailing unit words.
const (
	scaleLakh  = 100000
	scaleCrore = 10000000
	scaleKilo  = 1000
)

// Parse extracts the first signed decimal number from text and applies the
// scale implied by a trailing unit word. The boolean result is false when the
// text contains no numeric substring.
func Parse(text string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "₹", "")
	s = currencyRe.ReplaceAllString(s, "")

	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}

	// Unit precedence: lakh before crore before standalone k.
	switch {
	case lakhRe.MatchString(s):
		return value * scaleLakh, true
	case croreRe.MatchString(s):
		return value * scaleCrore, true
	case kiloRe.MatchString(s):
		return value * scaleKilo, true
	}
	return value, true
}

// FormatIndian renders an amount with Indian-style digit grouping, e.g.
// 5000000 -> "50,00,000". Fractional paise are dropped.
func FormatIndian(amount float64) string {
	s := strconv.FormatInt(int64(amount), 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	lastThree := s[len(s)-3:]
	remaining := s[:len(s)-3]
	var groups []string
	for len(remaining) > 2 {
		groups = append([]string{remaining[len(remaining)-2:]}, groups...)
		remaining = remaining[:len(remaining)-2]
	}
	if remaining != "" {
		groups = append([]string{remaining}, groups...)
	}
	out := strings.Join(groups, ",") + "," + lastThree
	if neg {
		return "-" + out
	}
	return out
}
