package script

// TranscriptItem is one slide's worth of normalized speech text plus
// metadata, as described in the transcript JSON input file.
type TranscriptItem struct {
	TranscriptIndex uint32 `json:"transcript_index" validate:"gte=0"`
	TranscriptID    string `json:"transcript_id" validate:"required"`
	Text            string `json:"transcript" validate:"required"`
	EarlyForward    bool   `json:"early_forward"`
}

// Chunk is a fixed-width sliding-window slice of the concatenated
// transcript word stream, tagged with the transcript(s) it draws words
// from, as described in the chunks JSON input file.
type Chunk struct {
	ChunkIndex        uint32   `json:"chunk_index" validate:"gte=0"`
	ChunkID           string   `json:"chunk_id" validate:"required"`
	SourceTranscripts []string `json:"source_transcripts" validate:"required,min=1,max=2"`
	Text              string   `json:"chunk" validate:"required"`
}

// FirstSourceTranscript returns the transcript_id listed first in
// SourceTranscripts — the one that defines a chunk's expected_idx per the
// navigator's decision procedure.
func (c Chunk) FirstSourceTranscript() string {
	return c.SourceTranscripts[0]
}

// StraddlesBoundary reports whether the chunk's window spans more than one
// source transcript.
func (c Chunk) StraddlesBoundary() bool {
	return len(c.SourceTranscripts) > 1
}
