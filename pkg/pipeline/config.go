package pipeline

import (
	"fmt"
	"time"

	"github.com/slidewalk/autopilot/pkg/matcher"
	"github.com/slidewalk/autopilot/pkg/vad"
)

// Config holds every tunable the pipeline's threads and collaborators need,
// mirroring the teacher's flat Config/DefaultConfig pattern.
type Config struct {
	SampleRate    int
	FrameDuration time.Duration

	VADAggressiveness vad.Aggressiveness
	SilenceHangover   time.Duration

	SemanticWeight float64
	PhoneticWeight float64
	TopK           int

	EmbeddingModelDir string
	OnnxLibPath       string
	ASRModelDir       string

	AudioQueueCapacity  int
	SpeechQueueCapacity int

	// MinScoreFloor gates navigation decisions on match confidence; 0
	// disables the gate (spec §9's open-question default).
	MinScoreFloor float64

	// QueueWaitTimeout bounds each actuator Advance call made by the
	// navigation worker. Queue producers never wait: a full queue applies
	// its backpressure policy immediately.
	QueueWaitTimeout time.Duration
}

// DefaultConfig returns spec §6's defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate:          16000,
		FrameDuration:       200 * time.Millisecond,
		VADAggressiveness:   vad.AggressivenessHigh,
		SilenceHangover:     500 * time.Millisecond,
		SemanticWeight:      matcher.DefaultSemanticWeight,
		PhoneticWeight:      matcher.DefaultPhoneticWeight,
		TopK:                matcher.DefaultTopK,
		AudioQueueCapacity:  64,
		SpeechQueueCapacity: 16,
		MinScoreFloor:       0,
		QueueWaitTimeout:    100 * time.Millisecond,
	}
}

// Validate checks the config for internal consistency.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", ErrConfigInvalid)
	}
	if c.FrameDuration <= 0 {
		return fmt.Errorf("%w: frame duration must be positive", ErrConfigInvalid)
	}
	if c.AudioQueueCapacity <= 0 || c.SpeechQueueCapacity <= 0 {
		return fmt.Errorf("%w: queue capacities must be positive", ErrConfigInvalid)
	}
	if c.SemanticWeight < 0 || c.PhoneticWeight < 0 {
		return fmt.Errorf("%w: fusion weights must be non-negative", ErrConfigInvalid)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: top-k must be positive", ErrConfigInvalid)
	}
	if c.ASRModelDir == "" {
		return fmt.Errorf("%w: ASR model directory is required", ErrConfigInvalid)
	}
	return nil
}

// matcherConfig adapts Config into matcher.Config.
func (c Config) matcherConfig() matcher.Config {
	return matcher.Config{
		SemanticWeight: c.SemanticWeight,
		PhoneticWeight: c.PhoneticWeight,
		TopK:           c.TopK,
	}
}
