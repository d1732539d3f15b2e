// Package vad implements a lightweight RMS-based voice activity detector
// with hysteresis and a silence hangover window, generalized from a
// threshold/duration pair into the four-level "aggressiveness" configuration
// surface described in spec §6.
package vad

import (
	"encoding/binary"
	"math"
	"time"
)

// EventType distinguishes the kinds of Event. Process only ever returns
// SpeechStart or SpeechEnd events.
type EventType int

const (
	// Silence is the zero EventType. Process never returns it: a frame that
	// does not start or end speech yields a nil *Event instead.
	Silence EventType = iota
	// SpeechStart is emitted the frame confirmed speech begins.
	SpeechStart
	// SpeechEnd is emitted once confirmed speech has been followed by a
	// full silence hangover window.
	SpeechEnd
)

// Event is one VAD transition with its timestamp.
type Event struct {
	Type      EventType
	Timestamp time.Time
}

// Aggressiveness selects a detection profile, mirroring the 0-3 scale
// spec §6 exposes as a configuration knob. Higher values require louder,
// more sustained audio to confirm speech, trading sensitivity for
// false-positive rejection.
type Aggressiveness int

const (
	AggressivenessLow Aggressiveness = iota
	AggressivenessModerate
	AggressivenessHigh
	AggressivenessMax
)

// profile bundles everything an aggressiveness level tunes: not just the
// RMS threshold, but how many frames of confirmation speech-start requires
// and how tolerant the confirmation counter is of a single weak frame
// breaking up an otherwise-loud run. Low/Moderate reset the counter on any
// below-threshold frame (snappy, favors quick barge-in); High/Max instead
// let it decay by one per weak frame, which demands a longer confirmed run
// overall but survives the odd dropout inside continuous speech.
type profile struct {
	threshold     float64
	confirmFrames int
	decayOnDip    bool
}

var profiles = [...]profile{
	AggressivenessLow:      {threshold: 0.01, confirmFrames: 4, decayOnDip: false},
	AggressivenessModerate: {threshold: 0.02, confirmFrames: 7, decayOnDip: false},
	AggressivenessHigh:     {threshold: 0.035, confirmFrames: 10, decayOnDip: true},
	AggressivenessMax:      {threshold: 0.05, confirmFrames: 14, decayOnDip: true},
}

func profileFor(level Aggressiveness) profile {
	if level < AggressivenessLow {
		level = AggressivenessLow
	}
	if level > AggressivenessMax {
		level = AggressivenessMax
	}
	return profiles[level]
}

// ThresholdFor returns the RMS threshold for a given aggressiveness level,
// clamping out-of-range values to the nearest defined preset.
func ThresholdFor(level Aggressiveness) float64 {
	return profileFor(level).threshold
}

// Detector is an RMS-amplitude voice activity detector over 16-bit PCM
// frames. Speech start requires a confirmation counter to reach
// minConfirmed (hysteresis against clicks/pops); speech end requires
// SilenceHangover of continuous below-threshold audio.
type Detector struct {
	threshold       float64
	silenceHangover time.Duration
	minConfirmed    int
	decayOnDip      bool

	isSpeaking   bool
	confirmLevel int
	silenceStart time.Time
	lastRMS      float64
}

// Option configures a Detector at construction time.
type Option func(*Detector)

// WithMinConfirmedFrames overrides the aggressiveness profile's default
// confirmation window.
func WithMinConfirmedFrames(n int) Option {
	return func(d *Detector) { d.minConfirmed = n }
}

// New creates a Detector at the given aggressiveness level with a silence
// hangover window before speech is considered to have ended.
func New(level Aggressiveness, silenceHangover time.Duration, opts ...Option) *Detector {
	p := profileFor(level)
	d := &Detector{
		threshold:       p.threshold,
		silenceHangover: silenceHangover,
		minConfirmed:    p.confirmFrames,
		decayOnDip:      p.decayOnDip,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsSpeaking reports whether the detector currently considers speech active.
func (d *Detector) IsSpeaking() bool {
	return d.isSpeaking
}

// LastRMS returns the RMS amplitude of the most recently processed frame.
func (d *Detector) LastRMS() float64 {
	return d.lastRMS
}

// SetThreshold overrides the RMS threshold directly, bypassing the
// aggressiveness presets.
func (d *Detector) SetThreshold(threshold float64) {
	d.threshold = threshold
}

// Process consumes one 16-bit PCM frame and returns an Event if a speech
// boundary was just crossed, or nil on an interior frame.
func (d *Detector) Process(frame []byte) *Event {
	d.lastRMS = rmsOf(frame)
	now := time.Now()

	if d.lastRMS > d.threshold {
		return d.onAboveThreshold(now)
	}
	return d.onBelowThreshold(now)
}

// onAboveThreshold advances the confirmation counter and, once it reaches
// minConfirmed, transitions into the speaking state.
func (d *Detector) onAboveThreshold(now time.Time) *Event {
	if d.confirmLevel < d.minConfirmed {
		d.confirmLevel++
	}

	if d.isSpeaking {
		d.silenceStart = time.Time{}
		return nil
	}
	if d.confirmLevel >= d.minConfirmed {
		d.isSpeaking = true
		return &Event{Type: SpeechStart, Timestamp: now}
	}
	return nil
}

// onBelowThreshold either resets or decays the confirmation counter
// (per the active profile) and, while already speaking, tracks whether the
// silence hangover window has fully elapsed.
func (d *Detector) onBelowThreshold(now time.Time) *Event {
	if d.decayOnDip {
		if d.confirmLevel > 0 {
			d.confirmLevel--
		}
	} else {
		d.confirmLevel = 0
	}

	if !d.isSpeaking {
		return nil
	}

	if d.silenceStart.IsZero() {
		d.silenceStart = now
	}
	if now.Sub(d.silenceStart) >= d.silenceHangover {
		d.isSpeaking = false
		d.silenceStart = time.Time{}
		return &Event{Type: SpeechEnd, Timestamp: now}
	}
	return nil
}

// Reset clears all detector state, as if newly constructed.
func (d *Detector) Reset() {
	d.isSpeaking = false
	d.confirmLevel = 0
	d.silenceStart = time.Time{}
	d.lastRMS = 0
}

// rmsOf computes the root-mean-square amplitude of a 16-bit little-endian
// PCM frame, normalized to [-1, 1].
func rmsOf(frame []byte) float64 {
	sampleCount := len(frame) / 2
	if sampleCount == 0 {
		return 0
	}

	var sumSquares float64
	for i := 0; i < sampleCount; i++ {
		offset := i * 2
		raw := binary.LittleEndian.Uint16(frame[offset : offset+2])
		normalized := float64(int16(raw)) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(sampleCount))
}
