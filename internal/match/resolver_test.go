package match

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrdesk/internal/domain"
)

func aliasTable(entries map[string]uuid.UUID) func(string) (uuid.UUID, bool) {
	return func(key string) (uuid.UUID, bool) {
		ref, ok := entries[key]
		return ref, ok
	}
}

func TestResolver_EmptyInput(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	res := r.Resolve("  ", Lookup{})
	assert.Equal(t, domain.MatchUnmatched, res.Status)
	assert.Nil(t, res.Ref)
}

func TestResolver_AliasTier(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	want := uuid.New()
	other := uuid.New()

	res := r.Resolve("STAR POPS (PTY) LTD.", Lookup{
		Alias: aliasTable(map[string]uuid.UUID{"star pops pty ltd": want}),
		// Exact tier would also hit; alias must win first.
		Candidates: []Candidate{{Ref: other, Name: "Star Pops (Pty) Ltd."}},
	})

	require.NotNil(t, res.Ref)
	assert.Equal(t, want, *res.Ref)
	assert.Equal(t, domain.MatchAutoMatched, res.Status)
}

func TestResolver_ExactTier(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	want := uuid.New()

	res := r.Resolve("  acme  HOLDINGS ", Lookup{
		Candidates: []Candidate{
			{Ref: uuid.New(), Name: "Star Pops"},
			{Ref: want, Name: "Acme Holdings"},
		},
	})

	require.NotNil(t, res.Ref)
	assert.Equal(t, want, *res.Ref)
	assert.Equal(t, domain.MatchAutoMatched, res.Status)
}

func TestResolver_ExactTier_MatchesItemCode(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	want := uuid.New()

	res := r.Resolve("DEL-001", Lookup{
		Candidates: []Candidate{{Ref: want, Name: "Standard Delivery", Code: "DEL-001"}},
	})

	require.NotNil(t, res.Ref)
	assert.Equal(t, domain.MatchAutoMatched, res.Status)
}

func TestResolver_PunctuationVariantIsSuggestedNotAutoMatched(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	canonical := uuid.New()

	res := r.Resolve("ABC Pty Ltd", Lookup{
		Candidates: []Candidate{{Ref: canonical, Name: "ABC (Pty) Ltd"}},
	})

	assert.Equal(t, domain.MatchSuggested, res.Status)
	assert.Nil(t, res.Ref, "suggestions are never auto-applied")
	require.NotNil(t, res.Suggestion)
	assert.Equal(t, canonical, res.Suggestion.Ref)
	assert.GreaterOrEqual(t, res.Suggestion.Score, DefaultThreshold)
}

func TestResolver_PatternTier(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	scopedItem := uuid.New()
	genericItem := uuid.New()
	account := uuid.New()

	lk := Lookup{
		Patterns: []PatternMapping{
			{Pattern: "delivery", ItemID: genericItem, ExpenseAccountID: account},
			{Pattern: "delivery", ItemID: scopedItem, ExpenseAccountID: account, CostCenter: "Main", SupplierScoped: true},
		},
	}

	res := r.Resolve("Delivery Fee - Standard", lk)
	require.NotNil(t, res.Ref)
	assert.Equal(t, scopedItem, *res.Ref, "supplier-scoped pattern wins over generic")
	assert.Equal(t, domain.MatchServiceMapped, res.Status)
	require.NotNil(t, res.Service)
	assert.Equal(t, account, res.Service.ExpenseAccountID)
	assert.Equal(t, "Main", res.Service.CostCenter)
}

func TestResolver_PatternTier_LongestPatternWins(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	short := uuid.New()
	long := uuid.New()

	res := r.Resolve("Express Delivery Fee", Lookup{
		Patterns: []PatternMapping{
			{Pattern: "delivery", ItemID: short},
			{Pattern: "express delivery", ItemID: long},
		},
	})

	require.NotNil(t, res.Ref)
	assert.Equal(t, long, *res.Ref)
}

func TestResolver_FuzzyBelowThreshold(t *testing.T) {
	r := NewResolver(DefaultThreshold)

	res := r.Resolve("Star Pops", Lookup{
		Candidates: []Candidate{{Ref: uuid.New(), Name: "Acme Holdings"}},
	})

	assert.Equal(t, domain.MatchUnmatched, res.Status)
	assert.Nil(t, res.Ref)
	assert.Nil(t, res.Suggestion)
}

func TestResolver_CustomThreshold(t *testing.T) {
	strict := NewResolver(100)
	lenient := NewResolver(30)
	cand := []Candidate{{Ref: uuid.New(), Name: "Star Pops Proprietary"}}

	res := strict.Resolve("Star Pops", Lookup{Candidates: cand})
	assert.Equal(t, domain.MatchUnmatched, res.Status)

	res = lenient.Resolve("Star Pops", Lookup{Candidates: cand})
	assert.Equal(t, domain.MatchSuggested, res.Status)
}

func TestResolver_TiersShortCircuit(t *testing.T) {
	r := NewResolver(DefaultThreshold)
	aliased := uuid.New()
	pattern := uuid.New()

	// Alias and pattern would both hit; the alias must win and the pattern
	// side outputs must not leak through.
	res := r.Resolve("Delivery Fee", Lookup{
		Alias:    aliasTable(map[string]uuid.UUID{"delivery fee": aliased}),
		Patterns: []PatternMapping{{Pattern: "delivery", ItemID: pattern}},
	})

	require.NotNil(t, res.Ref)
	assert.Equal(t, aliased, *res.Ref)
	assert.Equal(t, domain.MatchAutoMatched, res.Status)
	assert.Nil(t, res.Service)
}
