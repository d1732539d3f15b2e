// Package navigator implements the presentation position state machine:
// given a matched chunk, decide whether the speaker is still on the current
// slide, has jumped ahead, or has crossed an "early forward" boundary.
package navigator

import (
	"context"
	"fmt"

	"github.com/slidewalk/autopilot/pkg/matcher"
	"github.com/slidewalk/autopilot/pkg/script"
)

// Kind distinguishes the two decisions the navigator can emit.
type Kind int

const (
	// Stay means the actuator should take no action this turn.
	Stay Kind = iota
	// Forward means the actuator should advance to TargetIndex.
	Forward
)

func (k Kind) String() string {
	if k == Forward {
		return "Forward"
	}
	return "Stay"
}

// Decision is one navigator output: either Stay, or Forward to a specific
// transcript index.
type Decision struct {
	Kind        Kind
	TargetIndex uint32
}

// Matcher is the subset of matcher.Matcher the navigator depends on,
// narrowed to an interface so tests can supply a scripted fake without a
// real embedder.
type Matcher interface {
	Rank(ctx context.Context, query string) ([]matcher.Result, error)
}

// Logger mirrors pkg/pipeline's Logger so the navigator can log without an
// import cycle back into pipeline.
type Logger interface {
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

// Config holds the navigator's tunables.
type Config struct {
	// MinScoreFloor gates decisions on match confidence when > 0. The
	// reference implementation does not gate on score (spec §4.4); this is
	// the opt-in safety improvement spec §9 allows.
	MinScoreFloor float64
}

// Navigator tracks current_idx across a session and turns matched chunks
// into Stay/Forward decisions per spec §4.4's three-case logic.
type Navigator struct {
	corpus *script.Corpus
	match  Matcher
	config Config
	logger Logger

	currentIdx       uint32
	lastActedChunkID string
	haveActedOnChunk bool
}

// New creates a Navigator starting at transcript index 0 (spec §3: runtime
// position state initializes to 0 and is monotonically non-decreasing).
func New(corpus *script.Corpus, match Matcher, config Config, logger Logger) *Navigator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Navigator{
		corpus: corpus,
		match:  match,
		config: config,
		logger: logger,
	}
}

// CurrentIndex returns the navigator's current transcript position.
func (n *Navigator) CurrentIndex() uint32 {
	return n.currentIdx
}

// Decide consumes one normalized ASR hypothesis and returns a decision.
// Any failure in the underlying matcher defaults to Stay (spec §4.4/§7's
// decision-safety rule: the system never advances when in doubt).
func (n *Navigator) Decide(ctx context.Context, hypothesis string) Decision {
	results, err := n.match.Rank(ctx, hypothesis)
	if err != nil {
		n.logger.Error("navigator: matcher failed, staying", "error", err)
		return Decision{Kind: Stay, TargetIndex: n.currentIdx}
	}
	if len(results) == 0 {
		return Decision{Kind: Stay, TargetIndex: n.currentIdx}
	}

	top := results[0]
	if n.config.MinScoreFloor > 0 && top.Score < n.config.MinScoreFloor {
		n.logger.Debug("navigator: below score floor, staying", "score", top.Score, "floor", n.config.MinScoreFloor)
		return Decision{Kind: Stay, TargetIndex: n.currentIdx}
	}

	return n.decideFromMatch(top.Chunk)
}

// decideFromMatch implements spec §4.4's three-case decision table over the
// derived quantities (expected_idx, is_current_source, is_next_source_different).
func (n *Navigator) decideFromMatch(matched *script.Chunk) Decision {
	expectedIdx, ok := n.corpus.ExpectedTranscriptIndex(matched)
	if !ok {
		return Decision{Kind: Stay, TargetIndex: n.currentIdx}
	}
	isCurrentSource := expectedIdx == n.currentIdx

	currentTranscript, _ := n.corpus.TranscriptAt(n.currentIdx)
	earlyForward := currentTranscript != nil && currentTranscript.EarlyForward

	isNextSourceDifferent := false
	if next, ok := n.corpus.ChunkAt(matched.ChunkIndex + 1); ok {
		isNextSourceDifferent = next.FirstSourceTranscript() != matched.FirstSourceTranscript()
	}

	switch {
	// Case 2 — Forward (jump): speaker is ahead of the current slide.
	case !isCurrentSource && expectedIdx > n.currentIdx:
		return n.emitForward(matched, expectedIdx)

	// Case 1 — Stay: backward match, never rewind.
	case expectedIdx < n.currentIdx:
		return Decision{Kind: Stay, TargetIndex: n.currentIdx}

	// Case 3 — Forward (early): mid-slide, but at a fluid transition point
	// the speaker has effectively already crossed.
	case isCurrentSource && earlyForward && isNextSourceDifferent:
		return n.emitForward(matched, n.currentIdx+1)

	// Case 1 — Stay: still mid-slide.
	default:
		return Decision{Kind: Stay, TargetIndex: n.currentIdx}
	}
}

// emitForward advances current_idx and returns a Forward decision, unless
// this exact matched chunk already triggered the last Forward — spec §4.4's
// idempotence requirement: consecutive identical partials must not each
// emit their own Forward for the same boundary.
func (n *Navigator) emitForward(matched *script.Chunk, target uint32) Decision {
	if n.haveActedOnChunk && n.lastActedChunkID == matched.ChunkID {
		return Decision{Kind: Stay, TargetIndex: n.currentIdx}
	}

	n.currentIdx = target
	n.lastActedChunkID = matched.ChunkID
	n.haveActedOnChunk = true

	return Decision{Kind: Forward, TargetIndex: target}
}

// String implements fmt.Stringer for debug logging.
func (d Decision) String() string {
	if d.Kind == Stay {
		return "Stay"
	}
	return fmt.Sprintf("Forward(%d)", d.TargetIndex)
}
