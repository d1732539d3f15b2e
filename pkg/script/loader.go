package script

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	validator "github.com/go-playground/validator/v10"
)

var structValidator = validator.New()

// LoadTranscripts reads a {user}_transcript.json file and decodes it into an
// ordered slice of TranscriptItem. Each item's own fields are validated via
// struct tags; cross-item invariants (density, uniqueness) are checked later
// by NewCorpus, since they require the whole list.
func LoadTranscripts(path string) ([]TranscriptItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("script: open transcript file: %w", err)
	}
	defer f.Close()
	return decodeTranscripts(f)
}

func decodeTranscripts(r io.Reader) ([]TranscriptItem, error) {
	var items []TranscriptItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("script: decode transcript json: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyTranscripts
	}
	for i := range items {
		if err := structValidator.Struct(items[i]); err != nil {
			return nil, fmt.Errorf("script: transcript[%d] invalid: %w", i, err)
		}
	}
	return items, nil
}

// LoadChunks reads a {user}_chunks.json file and decodes it into an ordered
// slice of Chunk. Per-item validation mirrors LoadTranscripts.
func LoadChunks(path string) ([]Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("script: open chunks file: %w", err)
	}
	defer f.Close()
	return decodeChunks(f)
}

func decodeChunks(r io.Reader) ([]Chunk, error) {
	var items []Chunk
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("script: decode chunks json: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyChunks
	}
	for i := range items {
		if err := structValidator.Struct(items[i]); err != nil {
			return nil, fmt.Errorf("script: chunk[%d] invalid: %w", i, err)
		}
	}
	return items, nil
}
