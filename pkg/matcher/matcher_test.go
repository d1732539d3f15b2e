package matcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/slidewalk/autopilot/pkg/script"
)

// hashEmbedder is a deterministic stand-in for a real sentence-embedding
// model: it hashes each word into a fixed-size bucket vector. It is not
// semantically meaningful, only stable and cosine-comparable, which is all
// the matcher's fusion logic requires from its Embedder collaborator in
// tests.
type hashEmbedder struct {
	dim   int
	calls int
}

func (h *hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h.calls++
	vec := make([]float32, h.dim)
	for _, w := range strings.Fields(text) {
		var hash uint32 = 2166136261
		for i := 0; i < len(w); i++ {
			hash ^= uint32(w[i])
			hash *= 16777619
		}
		vec[int(hash)%h.dim] += 1
	}
	return l2Normalize(vec), nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errFakeEmbedFailure
}

var errFakeEmbedFailure = errFake("embedding backend unavailable")

type errFake string

func (e errFake) Error() string { return string(e) }

func buildTestCorpus(t *testing.T) *script.Corpus {
	t.Helper()

	texts := []string{
		"the ability to say no",
		"have you ever struggled when you tried to say no to someone",
		"or perhaps you couldnt say no to a person because you felt bad for them",
	}
	ids := []string{"t0", "t1", "t2"}

	transcripts := make([]script.TranscriptItem, len(texts))
	var allWords []string
	var wordOwner []int
	for i, text := range texts {
		transcripts[i] = script.TranscriptItem{
			TranscriptIndex: uint32(i),
			TranscriptID:    ids[i],
			Text:            text,
			EarlyForward:    true,
		}
		for _, w := range strings.Fields(text) {
			allWords = append(allWords, w)
			wordOwner = append(wordOwner, i)
		}
	}

	const window = 7
	var chunks []script.Chunk
	for start := 0; start+window <= len(allWords); start++ {
		seen := map[string]bool{}
		var sources []string
		for i := start; i < start+window; i++ {
			tid := ids[wordOwner[i]]
			if !seen[tid] {
				seen[tid] = true
				sources = append(sources, tid)
			}
		}
		chunks = append(chunks, script.Chunk{
			ChunkIndex:        uint32(len(chunks)),
			ChunkID:           idFor(len(chunks)),
			SourceTranscripts: sources,
			Text:              strings.Join(allWords[start:start+window], " "),
		})
	}

	corpus, err := script.NewCorpus(transcripts, chunks)
	if err != nil {
		t.Fatalf("script.NewCorpus() error = %v", err)
	}
	return corpus
}

func idFor(n int) string {
	const digits = "0123456789"
	if n == 0 {
		return "c0"
	}
	s := ""
	for n > 0 {
		s = string(digits[n%10]) + s
		n /= 10
	}
	return "c" + s
}

func TestMatcher_RankReturnsTopK(t *testing.T) {
	corpus := buildTestCorpus(t)
	m, err := New(context.Background(), corpus, &hashEmbedder{dim: 32}, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	results, err := m.Rank(context.Background(), "the ability to say no")
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(results) != DefaultTopK {
		t.Fatalf("len(results) = %d, want %d", len(results), DefaultTopK)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted descending at index %d", i)
		}
	}
}

func TestMatcher_RankEmptyQuery(t *testing.T) {
	corpus := buildTestCorpus(t)
	m, err := New(context.Background(), corpus, &hashEmbedder{dim: 32}, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	results, err := m.Rank(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("Rank() error = %v, want ErrEmptyQuery", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result for empty query, got %d", len(results))
	}
}

func TestMatcher_ScoreBounded(t *testing.T) {
	corpus := buildTestCorpus(t)
	m, err := New(context.Background(), corpus, &hashEmbedder{dim: 32}, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	results, err := m.Rank(context.Background(), "have you ever struggled")
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for _, r := range results {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("fused score %v out of [0,1]", r.Score)
		}
		if r.Semantic < 0 || r.Semantic > 1 {
			t.Errorf("semantic score %v out of [0,1]", r.Semantic)
		}
		if r.Phonetic < 0 || r.Phonetic > 1 {
			t.Errorf("phonetic score %v out of [0,1]", r.Phonetic)
		}
	}
}

func TestMatcher_EmbeddingFailureFallsBackToPhoneticOnly(t *testing.T) {
	corpus := buildTestCorpus(t)
	m, err := New(context.Background(), corpus, failingEmbedder{}, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	results, err := m.Rank(context.Background(), "the ability to say no")
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for _, r := range results {
		if r.Semantic != 0 {
			t.Errorf("semantic score should be 0 when embedder fails, got %v", r.Semantic)
		}
	}
}

func TestMatcher_QueryEmbeddingIsCached(t *testing.T) {
	corpus := buildTestCorpus(t)
	embedder := &hashEmbedder{dim: 32}
	m, err := New(context.Background(), corpus, embedder, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	callsAfterLoad := embedder.calls

	if _, err := m.Rank(context.Background(), "the ability to say no"); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if _, err := m.Rank(context.Background(), "the ability to say no"); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if embedder.calls != callsAfterLoad+1 {
		t.Errorf("expected exactly one new embed call across two identical queries, got %d new calls", embedder.calls-callsAfterLoad)
	}
}
