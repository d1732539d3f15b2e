// Package audio captures microphone audio via malgo and slices it into
// fixed-size PCM frames for downstream voice activity detection and speech
// recognition.
package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/slidewalk/autopilot/pkg/vad"
)

// Logger is the minimal leveled-logging interface the streamer depends on,
// matching pkg/pipeline's Logger.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

// Config configures the capture device and frame size.
type Config struct {
	SampleRate      int
	FrameDuration   time.Duration
	VADLevel        vad.Aggressiveness
	SilenceHangover time.Duration
	// DropSilentFrames suppresses frames while the VAD considers the signal
	// silent, trading some leading/trailing word loss for a smaller audio_q
	// backlog during long quiet stretches.
	DropSilentFrames bool
}

// DefaultConfig returns the spec §6 audio defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate:      16000,
		FrameDuration:   200 * time.Millisecond,
		VADLevel:        vad.AggressivenessHigh,
		SilenceHangover: 500 * time.Millisecond,
	}
}

// frameBytes returns the frame size in bytes for 16-bit mono PCM.
func (c Config) frameBytes() int {
	samples := int(float64(c.SampleRate) * c.FrameDuration.Seconds())
	return samples * 2
}

// Streamer captures microphone audio and forwards fixed-size frames to a
// sink function. Every accepted frame is forwarded immediately — unlike a
// turn-based assistant, the downstream recognizer is itself a streaming
// consumer, so there is no "wait for utterance end" boundary here.
type Streamer struct {
	config Config
	sink   func(frame []byte)
	logger Logger
	detect *vad.Detector

	mctx   *malgo.AllocatedContext
	device *malgo.Device

	mu      sync.Mutex
	started bool
}

// New creates a Streamer that calls sink with each accepted PCM frame.
func New(config Config, sink func(frame []byte), logger Logger) *Streamer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Streamer{
		config: config,
		sink:   sink,
		logger: logger,
		detect: vad.New(config.VADLevel, config.SilenceHangover),
	}
}

// Start opens the capture device and begins streaming frames to the sink
// until ctx is cancelled or Stop is called.
func (s *Streamer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("audio: streamer already started")
	}
	s.started = true
	s.mu.Unlock()

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("audio: init malgo context: %w", err)
	}
	s.mctx = mctx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(s.config.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	frameBytes := s.config.frameBytes()
	var carry []byte

	onSamples := func(_, pInput []byte, _ uint32) {
		if len(pInput) == 0 {
			return
		}
		carry = append(carry, pInput...)
		for len(carry) >= frameBytes {
			frame := make([]byte, frameBytes)
			copy(frame, carry[:frameBytes])
			carry = carry[frameBytes:]
			s.handleFrame(frame)
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		mctx.Uninit()
		return fmt.Errorf("audio: init capture device: %w", err)
	}
	s.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return fmt.Errorf("audio: start capture device: %w", err)
	}

	s.logger.Info("audio: capture started", "sample_rate", s.config.SampleRate, "frame_bytes", frameBytes)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Streamer) handleFrame(frame []byte) {
	if s.config.DropSilentFrames {
		event := s.detect.Process(frame)
		if event == nil && !s.detect.IsSpeaking() {
			return
		}
	} else {
		s.detect.Process(frame)
	}
	s.sink(frame)
}

// Stop closes the capture device. Safe to call multiple times.
func (s *Streamer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false

	if s.device != nil {
		s.device.Uninit()
		s.device = nil
	}
	if s.mctx != nil {
		s.mctx.Uninit()
		s.mctx = nil
	}
	s.logger.Info("audio: capture stopped")
}
