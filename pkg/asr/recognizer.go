// Package asr wraps a streaming Vosk recognizer, turning raw PCM frames
// into normalized partial/final speech hypotheses.
package asr

import (
	"encoding/json"
	"fmt"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"

	"github.com/slidewalk/autopilot/pkg/script"
)

// maxChunksBeforeForceFinalize forces a FinalResult() call after this many
// AcceptWaveform calls without a natural final, bounding the native buffer
// Vosk accumulates internally.
const maxChunksBeforeForceFinalize = 500

// Hypothesis is one normalized ASR output.
type Hypothesis struct {
	Text  string
	Final bool
}

type voskResult struct {
	Partial string `json:"partial,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Logger is the minimal leveled-logging interface the recognizer depends
// on, matching pkg/pipeline's Logger.
type Logger interface {
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

// Model loads a Vosk acoustic/language model directory once; a single
// Model can back many Recognizers.
type Model struct {
	vm *vosk.VoskModel
}

// LoadModel loads a Vosk model from a directory on disk.
func LoadModel(modelDir string) (*Model, error) {
	vm, err := vosk.NewModel(modelDir)
	if err != nil {
		return nil, fmt.Errorf("asr: load model from %s: %w", modelDir, err)
	}
	return &Model{vm: vm}, nil
}

// Close releases the underlying model.
func (m *Model) Close() {
	if m.vm != nil {
		m.vm.Free()
	}
}

// Recognizer wraps one streaming Vosk recognizer instance. It is not safe
// for concurrent use from multiple goroutines beyond the single
// RecognizerWorker that owns it (spec §5: one consumer per session).
type Recognizer struct {
	mu sync.Mutex

	model      *Model
	rec        *vosk.VoskRecognizer
	sampleRate float64

	chunksSinceFinal int
	lastEmitted      string
	logger           Logger
}

// New creates a Recognizer streaming at sampleRate (spec §6 default 16000).
func New(model *Model, sampleRate float64, logger Logger) (*Recognizer, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	rec, err := vosk.NewRecognizer(model.vm, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("asr: create recognizer: %w", err)
	}
	rec.SetWords(0)

	return &Recognizer{
		model:      model,
		rec:        rec,
		sampleRate: sampleRate,
		logger:     logger,
	}, nil
}

// Close releases the native recognizer.
func (r *Recognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rec != nil {
		r.rec.Free()
		r.rec = nil
	}
}

// Feed accepts one PCM frame and returns a Hypothesis if there is new,
// non-empty, normalized text to report, or nil if the frame produced
// nothing new (spec §4.2: duplicate partials are suppressed at the source).
func (r *Recognizer) Feed(pcm []byte) (*Hypothesis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec == nil {
		return nil, fmt.Errorf("asr: recognizer closed")
	}

	r.chunksSinceFinal++

	var resultJSON string
	var final bool

	if r.rec.AcceptWaveform(pcm) != 0 {
		resultJSON = r.rec.Result()
		final = true
		r.chunksSinceFinal = 0
	} else if r.chunksSinceFinal >= maxChunksBeforeForceFinalize {
		resultJSON = r.rec.FinalResult()
		final = true
		r.chunksSinceFinal = 0
		if err := r.resetLocked(); err != nil {
			r.logger.Error("asr: failed to reset recognizer after force-finalize", "error", err)
		}
	} else {
		resultJSON = r.rec.PartialResult()
		final = false
	}

	text, err := extractText(resultJSON, final)
	if err != nil {
		return nil, fmt.Errorf("asr: decode result: %w", err)
	}

	normalized := script.Normalize(text)
	if normalized == "" {
		return nil, nil
	}
	if !final && normalized == r.lastEmitted {
		return nil, nil
	}
	r.lastEmitted = normalized

	return &Hypothesis{Text: normalized, Final: final}, nil
}

// resetLocked recreates the native recognizer to release its internal
// buffer; callers must hold r.mu.
func (r *Recognizer) resetLocked() error {
	if r.rec != nil {
		r.rec.Free()
	}
	newRec, err := vosk.NewRecognizer(r.model.vm, r.sampleRate)
	if err != nil {
		r.rec = nil
		return err
	}
	newRec.SetWords(0)
	r.rec = newRec
	r.lastEmitted = ""
	return nil
}

func extractText(resultJSON string, final bool) (string, error) {
	var result voskResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return "", err
	}
	if final {
		return result.Text, nil
	}
	return result.Partial, nil
}
