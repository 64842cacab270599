package match

import (
	"strings"

	"github.com/google/uuid"

	"ocrdesk/internal/domain"
)

// DefaultThreshold is the fuzzy acceptance score used when none is configured.
const DefaultThreshold = 80

// Candidate is one canonical master-data entity a raw value can resolve to.
type Candidate struct {
	Ref  uuid.UUID
	Name string
	Code string // optional; items resolve on code as well as name
}

// PatternMapping is one learned service mapping, pre-scoped by the caller.
type PatternMapping struct {
	Pattern          string
	ItemID           uuid.UUID
	ItemName         string
	ExpenseAccountID uuid.UUID
	CostCenter       string
	SupplierScoped   bool
}

// Suggestion is a fuzzy candidate attached to a resolution for user review.
// It is never applied automatically.
type Suggestion struct {
	Ref   uuid.UUID
	Name  string
	Score int
}

// ServiceDefaults carries the accounting side output of a pattern-tier hit.
type ServiceDefaults struct {
	ItemName         string
	ExpenseAccountID uuid.UUID
	CostCenter       string
}

// Resolution is the outcome of resolving one raw text value.
type Resolution struct {
	Ref        *uuid.UUID
	Status     domain.MatchStatus
	Suggestion *Suggestion
	Service    *ServiceDefaults
}

// Lookup supplies the knowledge base for a single Resolve call. The caller
// scopes it: item alias lookups try the supplier scope before the global one,
// and Patterns list supplier-scoped mappings ahead of generic ones.
type Lookup struct {
	Alias      func(key string) (uuid.UUID, bool)
	Candidates []Candidate
	Patterns   []PatternMapping
}

// Resolver runs the four-tier resolution strategy shared by the supplier and
// item axes: alias, exact name, service pattern, fuzzy. Each tier
// short-circuits; learned knowledge is authoritative and similarity is only
// ever advisory. The resolver never writes to the knowledge base.
type Resolver struct {
	Threshold int
}

// NewResolver returns a Resolver with the given fuzzy acceptance threshold.
func NewResolver(threshold int) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Resolver{Threshold: threshold}
}

// Resolve resolves raw text against the supplied lookup tables.
func (r *Resolver) Resolve(raw string, lk Lookup) Resolution {
	if strings.TrimSpace(raw) == "" {
		return Resolution{Status: domain.MatchUnmatched}
	}
	key := NormalizeKey(raw)

	// Tier 1: learned aliases.
	if lk.Alias != nil {
		if ref, ok := lk.Alias(key); ok {
			return Resolution{Ref: &ref, Status: domain.MatchAutoMatched}
		}
	}

	// Tier 2: exact canonical name or code.
	name := NormalizeName(raw)
	for _, c := range lk.Candidates {
		if NormalizeName(c.Name) == name || (c.Code != "" && NormalizeName(c.Code) == name) {
			ref := c.Ref
			return Resolution{Ref: &ref, Status: domain.MatchAutoMatched}
		}
	}

	// Tier 3: service mapping patterns, supplier scope before generic,
	// longest pattern wins within a scope.
	if m := matchPattern(key, lk.Patterns); m != nil {
		ref := m.ItemID
		return Resolution{
			Ref:    &ref,
			Status: domain.MatchServiceMapped,
			Service: &ServiceDefaults{
				ItemName:         m.ItemName,
				ExpenseAccountID: m.ExpenseAccountID,
				CostCenter:       m.CostCenter,
			},
		}
	}

	// Tier 4: fuzzy similarity, advisory only.
	best := -1
	var bestCand Candidate
	for _, c := range lk.Candidates {
		score := Similarity(key, NormalizeKey(c.Name))
		if score > best {
			best = score
			bestCand = c
		}
	}
	if best >= r.Threshold {
		return Resolution{
			Status:     domain.MatchSuggested,
			Suggestion: &Suggestion{Ref: bestCand.Ref, Name: bestCand.Name, Score: best},
		}
	}
	return Resolution{Status: domain.MatchUnmatched}
}

func matchPattern(key string, patterns []PatternMapping) *PatternMapping {
	for _, scoped := range []bool{true, false} {
		var hit *PatternMapping
		for i := range patterns {
			p := &patterns[i]
			if p.SupplierScoped != scoped || p.Pattern == "" {
				continue
			}
			if strings.Contains(key, p.Pattern) {
				if hit == nil || len(p.Pattern) > len(hit.Pattern) {
					hit = p
				}
			}
		}
		if hit != nil {
			return hit
		}
	}
	return nil
}
