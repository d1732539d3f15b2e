package pipeline

import (
	"errors"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	c := DefaultConfig()
	c.ASRModelDir = "/models/vosk"
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestConfig_RejectsMissingASRModelDir(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Errorf("Validate() error = %v, want ErrConfigInvalid", err)
	}
}

func TestConfig_RejectsZeroSampleRate(t *testing.T) {
	c := DefaultConfig()
	c.ASRModelDir = "/models/vosk"
	c.SampleRate = 0
	if err := c.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Errorf("Validate() error = %v, want ErrConfigInvalid", err)
	}
}

func TestConfig_RejectsNonPositiveQueueCapacities(t *testing.T) {
	c := DefaultConfig()
	c.ASRModelDir = "/models/vosk"
	c.SpeechQueueCapacity = 0
	if err := c.Validate(); !errors.Is(err, ErrConfigInvalid) {
		t.Errorf("Validate() error = %v, want ErrConfigInvalid", err)
	}
}
