package match

import (
	"strconv"
	"strings"
	"unicode"
)

// NormalizeKey lowercases text, strips punctuation, and collapses whitespace.
// It is the canonical key for alias storage and lookup, and the input for
// fuzzy comparison and pattern matching.
func NormalizeKey(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeName lowercases and collapses whitespace but keeps punctuation.
// Exact master-name comparison uses this deliberately weaker form: a
// punctuation variant of a canonical name ("ABC Pty Ltd" vs "ABC (Pty) Ltd")
// must fall through to the fuzzy tier as a suggestion instead of silently
// auto-matching.
func NormalizeName(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

var monthTokens = map[string]bool{
	"jan": true, "january": true,
	"feb": true, "february": true,
	"mar": true, "march": true,
	"apr": true, "april": true,
	"may": true,
	"jun": true, "june": true,
	"jul": true, "july": true,
	"aug": true, "august": true,
	"sep": true, "sept": true, "september": true,
	"oct": true, "october": true,
	"nov": true, "november": true,
	"dec": true, "december": true,
}

// stopTokens are words that carry no identity on their own. A derived pattern
// consisting only of these would match unrelated line items.
var stopTokens = map[string]bool{
	"for": true, "of": true, "the": true, "to": true, "a": true, "an": true,
	"and": true, "from": true, "on": true, "in": true, "at": true, "per": true,
	"month": true, "months": true, "period": true,
}

// trailingFragments are preposition fragments stripped from the end of a
// derived pattern ("pro plan for" -> "pro plan").
var trailingFragments = map[string]bool{
	"for": true, "of": true, "the": true, "to": true, "a": true, "an": true,
	"and": true, "from": true, "on": true, "in": true, "at": true, "per": true,
}

// ExtractPattern derives a reusable service-mapping pattern from a line-item
// description: the normalized key with date-like tokens, month names, plausible
// years, and trailing preposition fragments removed. If stripping leaves only
// stop-words, the full normalized key is returned instead, because an empty or
// stop-word-only pattern would wrongly match unrelated descriptions.
func ExtractPattern(text string) string {
	key := NormalizeKey(text)

	raw := strings.Fields(strings.ToLower(text))
	type tok struct {
		text  string
		month bool
		drop  bool
	}
	toks := make([]tok, 0, len(raw))
	for _, t := range raw {
		trimmed := strings.TrimFunc(t, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed == "" {
			continue
		}
		switch {
		case monthTokens[trimmed]:
			toks = append(toks, tok{text: trimmed, month: true, drop: true})
		case isDateToken(trimmed), isYearToken(trimmed):
			toks = append(toks, tok{text: trimmed, drop: true})
		default:
			toks = append(toks, tok{text: trimmed})
		}
	}

	// Bare day numbers ride along with an adjacent month name ("feb 26").
	for i := range toks {
		if toks[i].drop || !isDayNumber(toks[i].text) {
			continue
		}
		if (i > 0 && toks[i-1].month) || (i+1 < len(toks) && toks[i+1].month) {
			toks[i].drop = true
		}
	}

	kept := make([]string, 0, len(toks))
	for _, t := range toks {
		if !t.drop {
			kept = append(kept, t.text)
		}
	}
	for len(kept) > 0 && trailingFragments[kept[len(kept)-1]] {
		kept = kept[:len(kept)-1]
	}

	pattern := NormalizeKey(strings.Join(kept, " "))
	if pattern == "" || onlyStopWords(pattern) {
		return key
	}
	return pattern
}

func onlyStopWords(pattern string) bool {
	for _, t := range strings.Fields(pattern) {
		if !stopTokens[t] {
			return false
		}
	}
	return true
}

// isDateToken reports whether a token looks like a calendar date: two or three
// numeric parts separated by / - or . with a plausible day/month combination
// and, when present, a year between 1900 and 2199.
func isDateToken(t string) bool {
	parts := strings.FieldsFunc(t, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) < 2 || len(parts) > 3 {
		return false
	}
	nums := make([]int, 0, 3)
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return false
		}
		nums = append(nums, n)
	}

	if len(nums) == 2 {
		// day/month in either order, or month/year.
		if validDayMonth(nums[0], nums[1]) || validDayMonth(nums[1], nums[0]) {
			return true
		}
		return validMonth(nums[0]) && validYearPart(parts[1], nums[1])
	}

	// Three parts: accept any plausible ordering of day, month, year.
	orders := [][3]int{{0, 1, 2}, {1, 0, 2}, {2, 1, 0}}
	for _, o := range orders {
		if validDay(nums[o[0]]) && validMonth(nums[o[1]]) && validYearPart(parts[o[2]], nums[o[2]]) {
			return true
		}
	}
	return false
}

func validDay(d int) bool   { return d >= 1 && d <= 31 }
func validMonth(m int) bool { return m >= 1 && m <= 12 }

func validDayMonth(d, m int) bool { return validDay(d) && validMonth(m) }

// validYearPart validates a year component: four digits must fall in
// 1900-2199; two digits pivot into that range and are always plausible.
func validYearPart(raw string, n int) bool {
	switch len(raw) {
	case 2:
		return true
	case 4:
		return n >= 1900 && n <= 2199
	}
	return false
}

// isYearToken reports whether a bare token is a plausible 4-digit year.
func isYearToken(t string) bool {
	if len(t) != 4 {
		return false
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return false
	}
	return n >= 1900 && n <= 2199
}

// isDayNumber reports whether a bare token is a 1-2 digit day of month.
func isDayNumber(t string) bool {
	if len(t) > 2 {
		return false
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return false
	}
	return validDay(n)
}
