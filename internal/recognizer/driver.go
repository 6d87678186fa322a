package recognizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/kugirin/internal/chunking"
)

const (
	// Window and stride the engine applies inside one pipeline chunk.
	engineChunkLengthSeconds  = 30
	engineStrideLengthSeconds = 5
)

type ModelLoadError struct {
	ModelID string
	Err     error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load model %q: %v", e.ModelID, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

type RecognitionError struct {
	ChunkIndex int
	Err        error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition failed on chunk %d: %v", e.ChunkIndex, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// Driver runs the recognition engine chunk by chunk. The model is loaded
// lazily on the first chunk that needs it and reused for every later chunk
// and run until Close; the driver never reloads a model mid-session.
type Driver struct {
	engine Engine

	mu      sync.Mutex
	model   Model
	modelID string
}

func NewDriver(engine Engine) *Driver {
	return &Driver{engine: engine}
}

// Recognize transcribes one chunk and re-bases the engine's chunk-local word
// timestamps onto the full-audio timeline by adding the chunk's audio-data
// origin (owned start minus look-back padding). ProcessingTime covers the
// recognition call only; model loading on the first call is reported
// through onLoadProgress and kept out of the per-chunk figure so chunk
// timings stay comparable.
func (d *Driver) Recognize(ctx context.Context, chunk chunking.AudioChunk, modelID, language string, onLoadProgress LoadProgress) (chunking.ChunkResult, error) {
	model, err := d.ensureModel(ctx, modelID, onLoadProgress)
	if err != nil {
		return chunking.ChunkResult{}, &ModelLoadError{ModelID: modelID, Err: err}
	}

	opts := RecognizeOptions{
		ChunkLengthSeconds:  engineChunkLengthSeconds,
		StrideLengthSeconds: engineStrideLengthSeconds,
		WordTimestamps:      true,
	}
	if !IsEnglishOnlyModel(modelID) {
		opts.Language = language
		if opts.Language == "" {
			opts.Language = "en"
		}
		opts.Task = "transcribe"
	}

	started := time.Now()
	result, err := model.Recognize(ctx, chunk.AudioData, opts)
	if err != nil {
		return chunking.ChunkResult{}, &RecognitionError{ChunkIndex: chunk.Index, Err: err}
	}
	processingMs := time.Since(started).Seconds() * 1000

	origin := chunk.StartTime - chunk.OverlapStart
	words := make([]chunking.Word, 0, len(result.Words))
	for _, w := range result.Words {
		if w.End <= w.Start {
			slog.Warn("engine returned degenerate word timestamp",
				"chunk_index", chunk.Index, "text", w.Text, "start", w.Start, "end", w.End)
		}
		words = append(words, chunking.Word{
			Text:      w.Text,
			Timestamp: [2]float64{w.Start + origin, w.End + origin},
		})
	}

	return chunking.ChunkResult{
		ChunkIndex:     chunk.Index,
		Text:           result.Text,
		Chunks:         words,
		ChunkStartTime: chunk.StartTime,
		ChunkEndTime:   chunk.EndTime,
		ProcessingTime: processingMs,
		HasSpeech:      len(words) > 0,
	}, nil
}

// EnsureModel loads the model now if no model is loaded yet. Callers that
// want loading progress reported before their own status updates call this
// ahead of Recognize.
func (d *Driver) EnsureModel(ctx context.Context, modelID string, onLoadProgress LoadProgress) error {
	if _, err := d.ensureModel(ctx, modelID, onLoadProgress); err != nil {
		return &ModelLoadError{ModelID: modelID, Err: err}
	}
	return nil
}

func (d *Driver) ensureModel(ctx context.Context, modelID string, onLoadProgress LoadProgress) (Model, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.model != nil {
		if modelID != d.modelID {
			slog.Debug("reusing already loaded model for the session",
				"loaded_model", d.modelID, "requested_model", modelID)
		}
		return d.model, nil
	}

	slog.Info("loading recognition model", "model", modelID)
	model, err := d.engine.LoadModel(ctx, modelID, onLoadProgress)
	if err != nil {
		return nil, err
	}
	d.model = model
	d.modelID = modelID
	slog.Info("recognition model loaded", "model", modelID)
	return model, nil
}

// Close releases the loaded model, if any. Safe to call more than once.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.model == nil {
		return nil
	}
	err := d.model.Close()
	d.model = nil
	d.modelID = ""
	return err
}

// IsEnglishOnlyModel reports whether the model id names an English-only
// variant, which must not receive language or task overrides.
func IsEnglishOnlyModel(modelID string) bool {
	return strings.Contains(modelID, ".en")
}
