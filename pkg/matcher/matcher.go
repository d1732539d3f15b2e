// Package matcher implements the hybrid semantic+phonetic chunk ranking
// described in spec §4.3: a weighted fusion of cosine similarity over dense
// sentence embeddings and a grouped-edit-distance phonetic score, with
// bounded LRU caches for both the expensive embedding calls and the
// phonetic distance computations.
package matcher

import (
	"context"
	"errors"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/slidewalk/autopilot/pkg/script"
)

const (
	// DefaultSemanticWeight and DefaultPhoneticWeight are the fusion
	// weights from spec §4.3: "STT substitutions dominate over paraphrasing".
	DefaultSemanticWeight = 0.40
	DefaultPhoneticWeight = 0.60

	// DefaultTopK is the number of ranked chunks retained per match call.
	DefaultTopK = 5

	defaultQueryCacheSize = 4096
	defaultWordCacheSize  = 65536
	defaultPhonCacheSize  = 65536
)

// ErrEmptyQuery is returned by Rank when query normalizes to the empty
// string: there is nothing to match against, so the caller should treat it
// as "no opinion" rather than a real ranking.
var ErrEmptyQuery = errors.New("matcher: query is empty after normalization")

// Logger is the minimal leveled-logging interface the matcher depends on,
// matching pkg/pipeline's Logger so callers can pass the same instance
// through every component without an import cycle.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

// Config holds the matcher's tunables.
type Config struct {
	SemanticWeight float64
	PhoneticWeight float64
	TopK           int
}

// DefaultConfig returns the fusion weights and top-K from spec §4.3/§6.
func DefaultConfig() Config {
	return Config{
		SemanticWeight: DefaultSemanticWeight,
		PhoneticWeight: DefaultPhoneticWeight,
		TopK:           DefaultTopK,
	}
}

// Result is one ranked chunk with its fused score and component scores.
type Result struct {
	Chunk    *script.Chunk
	Score    float64
	Semantic float64
	Phonetic float64
}

// Matcher ranks chunks against a query string by fused semantic+phonetic
// similarity. It holds precomputed chunk embeddings and tokenized chunk
// text, plus bounded caches for per-call work, and is safe for use by a
// single goroutine at a time (spec §5: only NavigationWorker calls it in
// the default topology).
type Matcher struct {
	corpus   *script.Corpus
	embedder Embedder
	config   Config
	logger   Logger

	chunkEmbeddings [][]float32
	chunkTokens     [][]string

	queryEmbedCache *lru.Cache[string, []float32]
	wordDistCache   *lru.Cache[string, int]
	phonScoreCache  *lru.Cache[string, float64]
}

// New builds a Matcher over corpus, embedding every chunk up front via
// embedder. This is the one-time, session-start cost spec §4.3 describes
// ("chunk embeddings are precomputed at session start and held in memory").
func New(ctx context.Context, corpus *script.Corpus, embedder Embedder, config Config, logger Logger) (*Matcher, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}

	queryCache, err := lru.New[string, []float32](defaultQueryCacheSize)
	if err != nil {
		return nil, err
	}
	wordCache, err := lru.New[string, int](defaultWordCacheSize)
	if err != nil {
		return nil, err
	}
	phonCache, err := lru.New[string, float64](defaultPhonCacheSize)
	if err != nil {
		return nil, err
	}

	m := &Matcher{
		corpus:          corpus,
		embedder:        embedder,
		config:          config,
		logger:          logger,
		chunkEmbeddings: make([][]float32, len(corpus.Chunks)),
		chunkTokens:     make([][]string, len(corpus.Chunks)),
		queryEmbedCache: queryCache,
		wordDistCache:   wordCache,
		phonScoreCache:  phonCache,
	}

	for i, c := range corpus.Chunks {
		m.chunkTokens[i] = script.Words(c.Text)
		if embedder == nil {
			continue
		}
		vec, err := embedder.Embed(ctx, c.Text)
		if err != nil {
			logger.Warn("matcher: failed to embed chunk, falling back to phonetic-only for this chunk", "chunk_id", c.ChunkID, "error", err)
			continue
		}
		m.chunkEmbeddings[i] = vec
	}

	return m, nil
}

// Rank returns the top-K chunks (per Config.TopK) ranked by fused score
// against query, highest first, ties broken by earlier chunk_index. An
// empty query returns ErrEmptyQuery per spec §4.3's failure semantics;
// callers (the navigator) treat that the same as any other ranking
// failure and stay put.
func (m *Matcher) Rank(ctx context.Context, query string) ([]Result, error) {
	normalized := script.Normalize(query)
	if normalized == "" {
		return nil, ErrEmptyQuery
	}

	queryVec, semanticOK := m.queryEmbedding(ctx, normalized)
	queryTokens := script.Words(normalized)

	results := make([]Result, len(m.corpus.Chunks))
	for i := range m.corpus.Chunks {
		c := &m.corpus.Chunks[i]

		phon := m.phoneticScore(normalized, queryTokens, c)

		var sem float64
		if semanticOK && m.chunkEmbeddings[i] != nil {
			sem = clip01(cosineSimilarity(queryVec, m.chunkEmbeddings[i]))
		}

		weight := m.effectiveWeights(semanticOK && m.chunkEmbeddings[i] != nil)
		score := weight.semantic*sem + weight.phonetic*phon

		results[i] = Result{Chunk: c, Score: score, Semantic: sem, Phonetic: phon}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ChunkIndex < results[j].Chunk.ChunkIndex
	})

	k := m.config.TopK
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

type fusionWeights struct {
	semantic, phonetic float64
}

// effectiveWeights falls back to phonetic-only (spec §4.3's embedding
// failure semantics) when no semantic score is available for this call.
func (m *Matcher) effectiveWeights(semanticAvailable bool) fusionWeights {
	if semanticAvailable {
		return fusionWeights{m.config.SemanticWeight, m.config.PhoneticWeight}
	}
	return fusionWeights{0, 1}
}

// queryEmbedding returns the cached or freshly computed embedding for a
// normalized query string, and whether semantic scoring is available at
// all (false when there is no embedder or the call failed).
func (m *Matcher) queryEmbedding(ctx context.Context, normalizedQuery string) ([]float32, bool) {
	if m.embedder == nil {
		return nil, false
	}
	if vec, ok := m.queryEmbedCache.Get(normalizedQuery); ok {
		return vec, true
	}
	vec, err := m.embedder.Embed(ctx, normalizedQuery)
	if err != nil {
		m.logger.Warn("matcher: query embedding failed, falling back to phonetic-only", "error", err)
		return nil, false
	}
	m.queryEmbedCache.Add(normalizedQuery, vec)
	return vec, true
}

// phoneticScore computes phon(Q, C), memoized per (normalized query, chunk_id).
func (m *Matcher) phoneticScore(normalizedQuery string, queryTokens []string, c *script.Chunk) float64 {
	cacheKey := normalizedQuery + "\x00" + c.ChunkID
	if v, ok := m.phonScoreCache.Get(cacheKey); ok {
		return v
	}

	chunkTokens := m.chunkTokens[c.ChunkIndex]
	score := m.sentenceSimilarityMemo(queryTokens, chunkTokens)
	m.phonScoreCache.Add(cacheKey, score)
	return score
}

// sentenceSimilarityMemo is sentenceSimilarity with per-word-pair distances
// routed through the shared LRU cache, since the same word pairs recur
// heavily across consecutive ASR partials and overlapping chunk windows.
func (m *Matcher) sentenceSimilarityMemo(q, c []string) float64 {
	rows, cols := len(q), len(c)
	if rows == 0 && cols == 0 {
		return 1
	}
	if rows == 0 || cols == 0 {
		return 0
	}

	prev := make([]float64, cols+1)
	curr := make([]float64, cols+1)
	for j := 0; j <= cols; j++ {
		prev[j] = float64(j)
	}

	for i := 1; i <= rows; i++ {
		curr[0] = float64(i)
		for j := 1; j <= cols; j++ {
			subCost := 1 - m.wordSimilarityMemo(q[i-1], c[j-1])
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + subCost
			curr[j] = minf3(del, ins, sub)
		}
		prev, curr = curr, prev
	}

	d := prev[cols]
	maxLen := rows
	if cols > maxLen {
		maxLen = cols
	}
	return clip01(1 - d/float64(maxLen))
}

func (m *Matcher) wordSimilarityMemo(w1, w2 string) float64 {
	maxLen := len(w1)
	if len(w2) > maxLen {
		maxLen = len(w2)
	}
	if maxLen == 0 {
		return 1
	}

	key := wordCacheKey(w1, w2)
	d, ok := m.wordDistCache.Get(key)
	if !ok {
		d = wordEditDistance(w1, w2)
		m.wordDistCache.Add(key, d)
	}
	return clip01(1 - float64(d)/float64(maxLen))
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
