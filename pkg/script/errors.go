package script

import "errors"

var (
	// ErrEmptyTranscripts is returned when the transcript file contains no items.
	ErrEmptyTranscripts = errors.New("script: transcript list is empty")

	// ErrEmptyChunks is returned when the chunk file contains no items.
	ErrEmptyChunks = errors.New("script: chunk list is empty")

	// ErrNonDenseIndex is returned when transcript_index or chunk_index values
	// are not a dense 0-based sequence.
	ErrNonDenseIndex = errors.New("script: index sequence is not dense and 0-based")

	// ErrDuplicateID is returned when two transcripts or two chunks share an ID.
	ErrDuplicateID = errors.New("script: duplicate id within domain")

	// ErrDanglingTranscriptRef is returned when a chunk's source_transcripts
	// references a transcript_id that does not exist.
	ErrDanglingTranscriptRef = errors.New("script: chunk references unknown transcript_id")

	// ErrChunkWindowMismatch is returned when consecutive chunks do not share
	// a 6-token overlap, violating the sliding-window invariant.
	ErrChunkWindowMismatch = errors.New("script: consecutive chunks do not share the expected word overlap")

	// ErrChunkWordCount is returned when a chunk's text does not contain the
	// same number of whitespace-separated tokens as the first chunk, whose
	// count NewCorpus takes as the window size.
	ErrChunkWordCount = errors.New("script: chunk text has unexpected word count")
)
