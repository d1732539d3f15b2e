package matcher

import (
	"testing"

	"github.com/slidewalk/autopilot/pkg/script"
)

func TestWordSimilarityBounded(t *testing.T) {
	pairs := [][2]string{
		{"hands", "hence"},
		{"the", "a"},
		{"", "abc"},
		{"same", "same"},
		{"xyz", "xyz"},
	}
	for _, p := range pairs {
		s := wordSimilarity(p[0], p[1])
		if s < 0 || s > 1 {
			t.Errorf("wordSimilarity(%q,%q) = %v, out of [0,1]", p[0], p[1], s)
		}
	}
}

func TestWordSimilarityIdentity(t *testing.T) {
	for _, w := range []string{"hands", "presentation", "a"} {
		if s := wordSimilarity(w, w); s != 1 {
			t.Errorf("wordSimilarity(%q,%q) = %v, want 1", w, w, s)
		}
	}
}

func TestSentenceSimilarityBounded(t *testing.T) {
	q := script.Words("let me see your hence")
	c := script.Words("let me see your hands")
	s := sentenceSimilarity(q, c)
	if s < 0 || s > 1 {
		t.Errorf("sentenceSimilarity = %v, out of [0,1]", s)
	}
}

func TestSentenceSimilarityIdentity(t *testing.T) {
	words := script.Words("the ability to say no")
	if s := sentenceSimilarity(words, words); s != 1 {
		t.Errorf("sentenceSimilarity(Q,Q) = %v, want 1", s)
	}
}

// TestPhoneticRobustness reproduces spec §8 scenario 6: a single-letter STT
// substitution ("hands" -> "hence") must still score highly, since
// phonetic near-misses are the matcher's primary signal.
func TestPhoneticRobustness(t *testing.T) {
	q := script.Words("let me see your hence")
	c := script.Words("let me see your hands")
	s := sentenceSimilarity(q, c)
	if s < 0.7 {
		t.Errorf("phonetic score for near-miss substitution = %v, want >= 0.7", s)
	}
}

func TestShareGroupMultiMembership(t *testing.T) {
	// 'P' sits in both labial-plosive (BP) and fricative-F (FPV); spec §9
	// resolves the ambiguity as "share ANY group => cheap substitution".
	if !shareGroup('P', 'B') {
		t.Error("P and B should share the labial-plosive group")
	}
	if !shareGroup('P', 'F') {
		t.Error("P and F should share the fricative-F group")
	}
	if shareGroup('P', 'W') {
		t.Error("P and W share no group")
	}
}

func TestWordEditDistanceUsesGroupedSubstitution(t *testing.T) {
	// "hands" -> "hence": h/h, a/e (vowel/vowel, free), n/n, d/c (dental/velar,
	// no shared group, cost 1), s/e (no shared group, cost 1): distance 2.
	// The key property under test is that grouped substitution is cheaper
	// than a naive unweighted Levenshtein would allow for vowel swaps.
	d := wordEditDistance("hands", "hence")
	if d != 2 {
		t.Fatalf("wordEditDistance(hands, hence) = %d, want 2", d)
	}
	vowelSwap := wordEditDistance("bat", "bet")
	plainSwap := wordEditDistance("bat", "bam")
	if vowelSwap != 0 || plainSwap != 1 {
		t.Fatalf("vowel swap should be free and cross-group swap cost 1, got %d and %d", vowelSwap, plainSwap)
	}
}
