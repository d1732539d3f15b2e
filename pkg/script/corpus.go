package script

import (
	"errors"
	"fmt"
)

// Corpus is the immutable, fully-validated presentation script: the ordered
// transcript list, the ordered chunk index built from it, and lookup maps by
// stable ID. A Corpus is loaded once at session start and never mutated.
type Corpus struct {
	Transcripts []TranscriptItem
	Chunks      []Chunk

	byTranscriptID map[string]*TranscriptItem
	byChunkID      map[string]*Chunk

	// WindowWords is the sliding-window size observed in the chunk file
	// (§6's default is 7, but NewCorpus derives it from the data itself).
	WindowWords int
}

// NewCorpus validates transcripts and chunks against every invariant in
// spec §3/§8 and, if they all hold, returns an immutable Corpus. All
// violations found are returned together via errors.Join rather than
// failing fast on the first one, so a caller gets one diagnostic covering
// the whole file pair.
func NewCorpus(transcripts []TranscriptItem, chunks []Chunk) (*Corpus, error) {
	if len(transcripts) == 0 {
		return nil, ErrEmptyTranscripts
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyChunks
	}

	var errs []error

	byTranscriptID := make(map[string]*TranscriptItem, len(transcripts))
	for i := range transcripts {
		t := &transcripts[i]
		if uint32(i) != t.TranscriptIndex {
			errs = append(errs, fmt.Errorf("%w: transcript_index %d at position %d", ErrNonDenseIndex, t.TranscriptIndex, i))
		}
		if _, dup := byTranscriptID[t.TranscriptID]; dup {
			errs = append(errs, fmt.Errorf("%w: transcript_id %q", ErrDuplicateID, t.TranscriptID))
		}
		byTranscriptID[t.TranscriptID] = t
	}

	byChunkID := make(map[string]*Chunk, len(chunks))
	windowWords := len(Words(chunks[0].Text))
	if windowWords == 0 {
		windowWords = 1
	}

	for i := range chunks {
		c := &chunks[i]
		if uint32(i) != c.ChunkIndex {
			errs = append(errs, fmt.Errorf("%w: chunk_index %d at position %d", ErrNonDenseIndex, c.ChunkIndex, i))
		}
		if _, dup := byChunkID[c.ChunkID]; dup {
			errs = append(errs, fmt.Errorf("%w: chunk_id %q", ErrDuplicateID, c.ChunkID))
		}
		byChunkID[c.ChunkID] = c

		for _, tid := range c.SourceTranscripts {
			if _, ok := byTranscriptID[tid]; !ok {
				errs = append(errs, fmt.Errorf("%w: chunk %q references %q", ErrDanglingTranscriptRef, c.ChunkID, tid))
			}
		}

		words := Words(c.Text)
		if len(words) != windowWords {
			errs = append(errs, fmt.Errorf("%w: chunk %q has %d words, expected %d", ErrChunkWordCount, c.ChunkID, len(words), windowWords))
			continue
		}

		if i+1 < len(chunks) {
			nextWords := Words(chunks[i+1].Text)
			if len(nextWords) == windowWords && windowWords > 1 {
				if !slicesEqual(words[1:], nextWords[:windowWords-1]) {
					errs = append(errs, fmt.Errorf("%w: between chunk %q and the next", ErrChunkWindowMismatch, c.ChunkID))
				}
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Corpus{
		Transcripts:    transcripts,
		Chunks:         chunks,
		byTranscriptID: byTranscriptID,
		byChunkID:      byChunkID,
		WindowWords:    windowWords,
	}, nil
}

// Transcript looks up a transcript by its stable ID.
func (c *Corpus) Transcript(id string) (*TranscriptItem, bool) {
	t, ok := c.byTranscriptID[id]
	return t, ok
}

// TranscriptAt returns the transcript at the given dense index.
func (c *Corpus) TranscriptAt(idx uint32) (*TranscriptItem, bool) {
	if int(idx) >= len(c.Transcripts) {
		return nil, false
	}
	return &c.Transcripts[idx], true
}

// ChunkByID looks up a chunk by its stable ID.
func (c *Corpus) ChunkByID(id string) (*Chunk, bool) {
	ch, ok := c.byChunkID[id]
	return ch, ok
}

// ChunkAt returns the chunk at the given dense index, or false if out of
// range — used by the navigator to look at the chunk immediately following
// a matched one.
func (c *Corpus) ChunkAt(idx uint32) (*Chunk, bool) {
	if int(idx) >= len(c.Chunks) {
		return nil, false
	}
	return &c.Chunks[idx], true
}

// ExpectedTranscriptIndex returns the transcript_index that a matched chunk
// implies the speaker is on: the index of the first transcript in the
// chunk's source_transcripts list (§4.4, and §9's open-question resolution
// for the >1-source case).
func (c *Corpus) ExpectedTranscriptIndex(ch *Chunk) (uint32, bool) {
	t, ok := c.Transcript(ch.FirstSourceTranscript())
	if !ok {
		return 0, false
	}
	return t.TranscriptIndex, true
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
