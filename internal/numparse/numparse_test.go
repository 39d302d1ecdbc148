package numparse

import (
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{"plain number", "5000", 5000, true},
		{"decimal", "8.75", 8.75, true},
		{"commas stripped", "50,00,000", 5000000, true},
		{"rupee symbol", "₹25000", 25000, true},
		{"rs prefix", "rs 40000", 40000, true},
		{"inr prefix", "INR 40000", 40000, true},
		{"lakhs", "50 lakhs", 5000000, true},
		{"lakh singular", "1 lakh", 100000, true},
		{"lac spelling", "2.5 lacs", 250000, true},
		{"bare l unit", "3 l", 300000, true},
		{"crore", "2 crore", 20000000, true},
		{"cr abbreviation", "2 cr", 20000000, true},
		{"kilo suffix", "10k", 10000, true},
		{"kilo separate token", "10 k", 10000, true},
		{"ok does not scale", "5000 ok", 5000, true},
		{"km does not scale", "5 km", 5, true},
		{"negative", "-20", -20, true},
		{"embedded number", "about 25 years", 25, true},
		{"no number", "what is the interest rate", 0, false},
		{"empty", "", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Parse(tc.in)
			if ok != tc.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			}
			if ok && math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatIndian(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{100000, "1,00,000"},
		{5000000, "50,00,000"},
		{10000000, "1,00,00,000"},
		{123456789, "12,34,56,789"},
		{-5000000, "-50,00,000"},
	}
	for _, tc := range cases {
		if got := FormatIndian(tc.in); got != tc.want {
			t.Errorf("FormatIndian(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
