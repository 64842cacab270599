package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "star pops", "star pops", 100},
		{"empty left", "", "star pops", 0},
		{"empty right", "star pops", "", 0},
		{"both empty", "", "", 0},
		{"disjoint", "zzz", "qqq", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Similarity(tt.a, tt.b))
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a, b := "abc pty ltd", "abc proprietary ltd"
	assert.Equal(t, Similarity(a, b), Similarity(b, a))
}

func TestSimilarity_CloseVariants(t *testing.T) {
	// Punctuation variants normalize to the same key and score 100, which is
	// what keeps them above the default acceptance threshold.
	score := Similarity(NormalizeKey("ABC Pty Ltd"), NormalizeKey("ABC (Pty) Ltd"))
	assert.Equal(t, 100, score)

	// A loosely related name stays well below the threshold.
	score = Similarity(NormalizeKey("Star Pops"), NormalizeKey("Acme Holdings"))
	assert.Less(t, score, DefaultThreshold)
}
