// Package pipeline wires AudioStreamer, RecognizerWorker, SpeechMatcher,
// RealtimeNavigator, and an Actuator into the three-thread, bounded-queue
// topology described in spec §5: audio_q (capacity 64, drop-newest) feeds
// the recognizer; speech_q (capacity 16, drop-oldest) feeds the navigator.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/slidewalk/autopilot/pkg/actuator"
	"github.com/slidewalk/autopilot/pkg/asr"
	"github.com/slidewalk/autopilot/pkg/audio"
	"github.com/slidewalk/autopilot/pkg/matcher"
	"github.com/slidewalk/autopilot/pkg/navigator"
	"github.com/slidewalk/autopilot/pkg/script"
)

// Stats reports pipeline health counters, generalized from the teacher's
// per-turn latency instrumentation into simple queue-health tallies.
type Stats struct {
	AudioFramesDropped uint64
	SpeechSuperseded   uint64
	FramesCaptured     uint64
	Advances           uint64
}

// Pipeline is the composition root: it owns both queues, spawns the
// recognizer and navigation worker goroutines alongside the audio capture
// callback, and exposes Start/Stop mirroring the teacher's
// ManagedStream/Orchestrator split between session state and wiring.
type Pipeline struct {
	config Config
	logger Logger

	corpus    *script.Corpus
	match     *matcher.Matcher
	nav       *navigator.Navigator
	act       actuator.Actuator
	recognize *asr.Recognizer
	model     *asr.Model
	stream    *audio.Streamer

	audioQ  chan []byte
	speechQ chan asr.Hypothesis

	dropped    atomic.Uint64
	superseded atomic.Uint64
	captured   atomic.Uint64
	advances   atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New builds every collaborator and wires them together. Embedder may be
// nil, in which case the matcher runs phonetic-only (spec §4.3's
// degradation path).
func New(corpus *script.Corpus, embedder matcher.Embedder, act actuator.Actuator, config Config, logger Logger) (*Pipeline, error) {
	if logger == nil {
		logger = NoOpLogger{}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if act == nil {
		act = actuator.NoOp{}
	}

	ctx := context.Background()
	m, err := matcher.New(ctx, corpus, embedder, config.matcherConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build matcher: %w", err)
	}

	nav := navigator.New(corpus, m, navigator.Config{MinScoreFloor: config.MinScoreFloor}, logger)

	model, err := asr.LoadModel(config.ASRModelDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrASREngineInit, err)
	}
	rec, err := asr.New(model, float64(config.SampleRate), logger)
	if err != nil {
		model.Close()
		return nil, fmt.Errorf("%w: %v", ErrASREngineInit, err)
	}

	p := &Pipeline{
		config:    config,
		logger:    logger,
		corpus:    corpus,
		match:     m,
		nav:       nav,
		act:       act,
		recognize: rec,
		model:     model,
		audioQ:    make(chan []byte, config.AudioQueueCapacity),
		speechQ:   make(chan asr.Hypothesis, config.SpeechQueueCapacity),
	}

	p.stream = audio.New(audio.Config{
		SampleRate:      config.SampleRate,
		FrameDuration:   config.FrameDuration,
		VADLevel:        config.VADAggressiveness,
		SilenceHangover: config.SilenceHangover,
	}, p.onFrame, logger)

	return p, nil
}

// onFrame is the AudioStreamer sink: it applies audio_q's drop-newest
// backpressure policy (spec §5) before handing the frame to the
// recognizer thread.
func (p *Pipeline) onFrame(frame []byte) {
	p.captured.Add(1)
	select {
	case p.audioQ <- frame:
	default:
		p.dropped.Add(1)
		p.logger.Debug("pipeline: audio_q full, dropping newest frame")
	}
}

// Start opens the capture device and spawns the recognizer and navigation
// worker goroutines. It returns once everything is running; Stop (or ctx
// cancellation) tears the pipeline down.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	p.wg.Add(2)
	go p.runRecognizerWorker(runCtx)
	go p.runNavigationWorker(runCtx)

	if err := p.stream.Start(runCtx); err != nil {
		cancel()
		p.wg.Wait()
		p.mu.Lock()
		p.started = false
		p.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	return nil
}

// Stop halts audio capture and both worker goroutines, then waits for them
// to exit.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.mu.Unlock()

	p.stream.Stop()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	p.recognize.Close()
	p.model.Close()

	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
}

// runRecognizerWorker drains audio_q, feeds frames through the ASR
// recognizer, and pushes resulting hypotheses onto speech_q under its
// drop-oldest backpressure policy.
func (p *Pipeline) runRecognizerWorker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-p.audioQ:
			if !ok {
				return
			}
			hyp, err := p.recognize.Feed(frame)
			if err != nil {
				p.logger.Error("pipeline: recognizer feed failed", "error", err)
				continue
			}
			if hyp == nil {
				continue
			}
			p.pushSpeech(*hyp)
		}
	}
}

// pushSpeech applies speech_q's drop-oldest backpressure policy: when full,
// the oldest queued hypothesis is discarded in favor of the newest, since a
// stale partial is less useful than a fresher one.
func (p *Pipeline) pushSpeech(hyp asr.Hypothesis) {
	select {
	case p.speechQ <- hyp:
		return
	default:
	}

	select {
	case <-p.speechQ:
		p.superseded.Add(1)
	default:
	}

	select {
	case p.speechQ <- hyp:
	default:
		p.superseded.Add(1)
	}
}

// runNavigationWorker drains speech_q, asks the navigator for a decision
// per hypothesis, and drives the actuator on Forward decisions.
func (p *Pipeline) runNavigationWorker(ctx context.Context) {
	defer p.wg.Done()
	var lastActedIdx uint32
	haveActed := false

	for {
		select {
		case <-ctx.Done():
			return
		case hyp, ok := <-p.speechQ:
			if !ok {
				return
			}

			decision := p.nav.Decide(ctx, hyp.Text)
			if decision.Kind != navigator.Forward {
				continue
			}
			if haveActed && decision.TargetIndex <= lastActedIdx {
				continue
			}

			// lastActedIdx starts at 0, the navigator's own starting position
			// (pkg/navigator.Navigator.currentIdx), so the first-ever advance
			// uses the same target-minus-previous formula as every later one.
			count := decision.TargetIndex - lastActedIdx

			actCtx, cancel := context.WithTimeout(ctx, p.config.QueueWaitTimeout)
			err := p.act.Advance(actCtx, count)
			cancel()
			if err != nil {
				p.logger.Error("pipeline: actuator advance failed", "error", err)
				continue
			}

			p.advances.Add(1)
			lastActedIdx = decision.TargetIndex
			haveActed = true
		}
	}
}

// Stats returns a snapshot of the pipeline's queue-health counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		AudioFramesDropped: p.dropped.Load(),
		SpeechSuperseded:   p.superseded.Load(),
		FramesCaptured:     p.captured.Load(),
		Advances:           p.advances.Load(),
	}
}
