package vad

import (
	"testing"
	"time"
)

func pcmFrame(amplitude float64, samples int) []byte {
	frame := make([]byte, samples*2)
	sample := int16(amplitude * 32767)
	for i := 0; i < samples; i++ {
		frame[i*2] = byte(sample)
		frame[i*2+1] = byte(sample >> 8)
	}
	return frame
}

func TestThresholdFor_ClampsOutOfRange(t *testing.T) {
	if ThresholdFor(Aggressiveness(-1)) != ThresholdFor(AggressivenessLow) {
		t.Error("negative level should clamp to Low")
	}
	if ThresholdFor(Aggressiveness(99)) != ThresholdFor(AggressivenessMax) {
		t.Error("out-of-range level should clamp to Max")
	}
}

func TestThresholdFor_Increasing(t *testing.T) {
	prev := 0.0
	for level := AggressivenessLow; level <= AggressivenessMax; level++ {
		th := ThresholdFor(level)
		if th <= prev {
			t.Errorf("threshold not increasing at level %d: %v <= %v", level, th, prev)
		}
		prev = th
	}
}

func TestDetector_RequiresConsecutiveFramesToConfirmSpeech(t *testing.T) {
	d := New(AggressivenessLow, 200*time.Millisecond, WithMinConfirmedFrames(3))
	loud := pcmFrame(0.5, 160)

	if ev := d.Process(loud); ev != nil {
		t.Errorf("frame 1: unexpected event %v", ev)
	}
	if ev := d.Process(loud); ev != nil {
		t.Errorf("frame 2: unexpected event %v", ev)
	}
	ev := d.Process(loud)
	if ev == nil || ev.Type != SpeechStart {
		t.Fatalf("frame 3: expected SpeechStart, got %v", ev)
	}
	if !d.IsSpeaking() {
		t.Error("expected IsSpeaking() true after SpeechStart")
	}
}

func TestDetector_RejectsBriefSpike(t *testing.T) {
	d := New(AggressivenessLow, 200*time.Millisecond, WithMinConfirmedFrames(5))
	loud := pcmFrame(0.5, 160)
	quiet := pcmFrame(0.0, 160)

	d.Process(loud)
	d.Process(loud)
	ev := d.Process(quiet)
	if ev != nil {
		t.Errorf("expected no event after spike dies out, got %v", ev)
	}
	if d.IsSpeaking() {
		t.Error("brief spike should not confirm speech")
	}
}

func TestDetector_SpeechEndAfterHangover(t *testing.T) {
	d := New(AggressivenessLow, 10*time.Millisecond, WithMinConfirmedFrames(1))
	loud := pcmFrame(0.5, 160)
	quiet := pcmFrame(0.0, 160)

	ev := d.Process(loud)
	if ev == nil || ev.Type != SpeechStart {
		t.Fatalf("expected SpeechStart, got %v", ev)
	}

	if ev := d.Process(quiet); ev != nil {
		t.Errorf("immediately after speech, expected no event within hangover, got %v", ev)
	}

	time.Sleep(15 * time.Millisecond)
	ev = d.Process(quiet)
	if ev == nil || ev.Type != SpeechEnd {
		t.Fatalf("expected SpeechEnd after hangover elapsed, got %v", ev)
	}
	if d.IsSpeaking() {
		t.Error("expected IsSpeaking() false after SpeechEnd")
	}
}

func TestDetector_ResetClearsState(t *testing.T) {
	d := New(AggressivenessLow, 200*time.Millisecond, WithMinConfirmedFrames(1))
	d.Process(pcmFrame(0.5, 160))
	if !d.IsSpeaking() {
		t.Fatal("setup: expected speaking state")
	}
	d.Reset()
	if d.IsSpeaking() {
		t.Error("expected IsSpeaking() false after Reset")
	}
}

func TestCalculateRMS_SilentFrameIsZero(t *testing.T) {
	d := New(AggressivenessLow, 200*time.Millisecond)
	d.Process(pcmFrame(0, 160))
	if d.LastRMS() != 0 {
		t.Errorf("LastRMS() = %v, want 0 for silence", d.LastRMS())
	}
}
