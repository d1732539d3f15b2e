package pipeline

import (
	"errors"

	"github.com/slidewalk/autopilot/pkg/matcher"
)

var (
	// ErrConfigInvalid is returned when a Config fails its own sanity checks.
	ErrConfigInvalid = errors.New("pipeline: invalid configuration")

	// ErrDeviceUnavailable is returned when the capture device cannot be
	// opened.
	ErrDeviceUnavailable = errors.New("pipeline: audio capture device unavailable")

	// ErrASREngineInit is returned when the speech recognizer fails to
	// initialize.
	ErrASREngineInit = errors.New("pipeline: ASR engine failed to initialize")

	// ErrEmbedderUnavailable marks a non-fatal embedding backend failure;
	// the matcher falls back to phonetic-only scoring rather than failing
	// the whole pipeline.
	ErrEmbedderUnavailable = errors.New("pipeline: embedding backend unavailable")

	// ErrMatcherEmptyQuery aliases matcher.ErrEmptyQuery so callers of this
	// package can check the taxonomy without importing pkg/matcher
	// themselves.
	ErrMatcherEmptyQuery = matcher.ErrEmptyQuery

	// ErrAlreadyStarted is returned by Start when called on a Pipeline that
	// is already running.
	ErrAlreadyStarted = errors.New("pipeline: already started")
)
