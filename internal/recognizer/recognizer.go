package recognizer

import "context"

// LoadProgress reports model-loading progress as a fraction in [0, 1].
type LoadProgress func(fraction float64)

type RecognizeOptions struct {
	// Window and stride the engine uses for its own internal sub-chunking.
	ChunkLengthSeconds  float64
	StrideLengthSeconds float64
	WordTimestamps      bool
	// Language and Task are left empty for English-only models; some
	// engines silently misbehave when given overrides they cannot honor.
	Language string
	Task     string
}

// Word is a single recognized word with timestamps local to the audio the
// engine was given.
type Word struct {
	Text  string
	Start float64
	End   float64
}

type Result struct {
	Text  string
	Words []Word
}

// Model is a loaded recognition model. Implementations are reused across
// chunks and runs until closed.
type Model interface {
	Recognize(ctx context.Context, samples []float32, opts RecognizeOptions) (*Result, error)
	Close() error
}

// Engine loads recognition models by id. Loading may be slow; onProgress is
// invoked periodically so callers can relay loading progress.
type Engine interface {
	LoadModel(ctx context.Context, modelID string, onProgress LoadProgress) (Model, error)
}
