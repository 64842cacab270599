package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Star Pops LTD", "star pops ltd"},
		{"strips punctuation", "ABC (Pty) Ltd.", "abc pty ltd"},
		{"collapses whitespace", "  Pro   Plan \t Annual ", "pro plan annual"},
		{"keeps digits", "Invoice #1042", "invoice 1042"},
		{"empty", "", ""},
		{"punctuation only", "---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestNormalizeKey_Deterministic(t *testing.T) {
	in := "Pro Plan - Jan 2026 to Feb 2026"
	assert.Equal(t, NormalizeKey(in), NormalizeKey(in))
}

func TestNormalizeName_KeepsPunctuation(t *testing.T) {
	assert.Equal(t, "abc (pty) ltd", NormalizeName("ABC (Pty) Ltd"))
	assert.NotEqual(t, NormalizeName("ABC Pty Ltd"), NormalizeName("ABC (Pty) Ltd"))
}

func TestExtractPattern(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"month and year range", "Pro Plan - Jan 2026 to Feb 2026", "pro plan"},
		{"full month name", "Subscription for March 2026", "subscription"},
		{"slash date", "Delivery Fee 15/01/2026", "delivery fee"},
		{"dash date", "Hosting 15-01-2026", "hosting"},
		{"month with day", "Subscription (Feb 26)", "subscription"},
		{"iso date", "Retainer 2026-02-09", "retainer"},
		{"no dates", "Standard Delivery Fee", "standard delivery fee"},
		{"trailing preposition", "Pro Plan for", "pro plan"},
		{"year out of range kept", "Part 2500", "part 2500"},
		{"implausible date kept", "Ref 45/77/2026", "ref 45 77 2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPattern(tt.in))
		})
	}
}

func TestExtractPattern_StopWordFallback(t *testing.T) {
	// Stripping would reduce this to stop-words only; the full normalized
	// text must come back instead of an over-general pattern.
	got := ExtractPattern("for the month of March")
	assert.Equal(t, "for the month of march", got)

	got = ExtractPattern("January 2026")
	assert.Equal(t, "january 2026", got)
}
