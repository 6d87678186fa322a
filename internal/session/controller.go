package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/kugirin/internal/chunking"
	"github.com/foxseedlab/kugirin/internal/recognizer"
	"github.com/foxseedlab/kugirin/internal/repository"
	"github.com/foxseedlab/kugirin/internal/webhook"
)

type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateProcessing   State = "processing"
	StateCompleted    State = "completed"
	StateCancelled    State = "cancelled"
	StateFailed       State = "failed"
)

const (
	// Share of a run's overall progress granted to model loading on the
	// chunk that triggers it.
	modelLoadProgressShare = 20.0

	// Best-effort throttle when memory usage exceeds the configured
	// ceiling; gives the runtime a chance to reclaim before the next chunk.
	memoryBackoffDelay = time.Second
)

// Factory builds one Controller per caller session.
type Factory func(id string, sink Sink) *Controller

// Controller owns one session's pipeline state: the current config, the
// lazily loaded model (via the driver), the in-flight run's accumulated
// chunk results and the cancellation token. One run is processed at a time;
// control messages (cancel, memory queries) may arrive concurrently from
// the transport and take effect between chunks.
type Controller struct {
	id      string
	driver  *recognizer.Driver
	repo    repository.Repository
	webhook webhook.Sender
	sink    Sink

	memoryUsageMB func() float64
	memoryBackoff func()

	mu              sync.Mutex
	cfg             chunking.Config
	state           State
	chunkResults    []chunking.ChunkResult
	chunksCompleted int
	runStart        time.Time

	cancelRequested atomic.Bool
}

func NewController(id string, driver *recognizer.Driver, repo repository.Repository, wh webhook.Sender, sink Sink) *Controller {
	return &Controller{
		id:            id,
		driver:        driver,
		repo:          repo,
		webhook:       wh,
		sink:          sink,
		cfg:           chunking.DefaultConfig(),
		state:         StateIdle,
		memoryUsageMB: processMemoryUsageMB,
		memoryBackoff: func() { time.Sleep(memoryBackoffDelay) },
	}
}

// Handle executes one control message. It blocks until the command
// completes; transports run long-running commands on their own goroutine so
// cancel and memory queries stay responsive mid-run.
func (c *Controller) Handle(ctx context.Context, cmd Command) {
	switch cmd.Type {
	case CommandInitialize:
		c.handleInitialize(cmd)
	case CommandProcessAudio:
		c.handleProcessAudio(ctx, cmd)
	case CommandProcessChunk:
		c.handleProcessChunk(ctx, cmd)
	case CommandMergeResults:
		c.handleMergeResults(cmd)
	case CommandCancel:
		c.handleCancel()
	case CommandGetMemoryUsage:
		c.sink.Send(NewMemoryUsageEvent(c.memoryUsageMB()))
	case CommandTranscribe:
		c.handleLegacyTranscribe(ctx, cmd)
	default:
		c.sink.Send(NewErrorEvent(fmt.Sprintf("unknown message type: %s", cmd.Type), ""))
	}
}

// Close releases the session's loaded model.
func (c *Controller) Close() error {
	return c.driver.Close()
}

func (c *Controller) handleInitialize(cmd Command) {
	cfg := cmd.Config.Resolve()

	c.mu.Lock()
	c.cfg = cfg
	c.chunkResults = nil
	c.chunksCompleted = 0
	c.state = StateIdle
	c.mu.Unlock()
	c.cancelRequested.Store(false)

	slog.Info("session initialized", "session_id", c.id,
		"chunk_length_s", cfg.ChunkLengthSeconds, "overlap_s", cfg.OverlapSeconds,
		"worker_pool_size", cfg.WorkerPoolSize)
	if cfg.WorkerPoolSize > 1 {
		slog.Info("workerPoolSize > 1 accepted; chunk processing remains sequential",
			"session_id", c.id, "worker_pool_size", cfg.WorkerPoolSize)
	}
	c.sink.Send(NewInitializedEvent(chunking.Stats{AverageChunkSize: cfg.ChunkLengthSeconds}))
}

func (c *Controller) handleCancel() {
	c.cancelRequested.Store(true)
	slog.Info("cancellation requested", "session_id", c.id)
	c.sink.Send(NewCancelledEvent())
}

func (c *Controller) handleProcessAudio(ctx context.Context, cmd Command) {
	cfg := cmd.Config.Resolve()
	if !c.beginRun() {
		c.sink.Send(NewErrorEvent("another run is already in progress", ""))
		return
	}

	run := c.createRun(ctx, cmd)
	slog.Info("run started", "session_id", c.id, "run_id", runID(run),
		"model", cmd.Model, "language", cmd.Language, "samples", len(cmd.Audio))

	chunks, stats, err := chunking.Plan(cmd.Audio, chunking.SampleRate, cfg)
	if err != nil {
		c.failRun(ctx, run, err)
		return
	}
	c.sink.Send(NewInitializedEvent(stats))

	c.mu.Lock()
	c.state = StateProcessing
	c.mu.Unlock()

	total := len(chunks)
	for _, chunk := range chunks {
		if c.cancelRequested.Load() {
			c.cancelRun(ctx, run, stats)
			return
		}
		result, err := c.runChunk(ctx, chunk, cmd.Model, cmd.Language, total, cfg)
		if err != nil {
			c.failRun(ctx, run, err)
			return
		}

		c.mu.Lock()
		c.chunkResults = append(c.chunkResults, result)
		results := make([]chunking.ChunkResult, len(c.chunkResults))
		copy(results, c.chunkResults)
		completed := c.chunksCompleted
		c.mu.Unlock()

		c.sink.Send(NewChunkCompleteEvent(result))
		if cfg.EnableProgressiveResults {
			partial := chunking.Merge(results, cfg)
			c.sink.Send(NewProgressEvent(chunking.Progress{
				CurrentChunk:           chunk.Index,
				TotalChunks:            total,
				OverallProgress:        float64(chunk.Index+1) / float64(total) * 100,
				EstimatedTimeRemaining: c.estimateTimeRemaining(total),
				Status:                 fmt.Sprintf("Processed chunk %d of %d", chunk.Index+1, total),
				ChunksCompleted:        completed,
				MemoryUsageMB:          c.memoryUsageMB(),
				PartialResult:          &partial,
			}))
		}
	}

	c.mu.Lock()
	results := make([]chunking.ChunkResult, len(c.chunkResults))
	copy(results, c.chunkResults)
	c.mu.Unlock()

	final := chunking.Merge(results, cfg)
	c.sink.Send(NewMergeCompleteEvent(final))
	c.persistCompleted(ctx, run, stats, total, final)
	c.notifyWebhook(ctx, run, cmd, stats, total, final)
	slog.Info("run completed", "session_id", c.id, "run_id", runID(run),
		"chunks", total, "words", len(final.Chunks),
		"audio_duration", formatDuration(stats.TotalDuration),
		"elapsed", formatDuration(time.Since(c.runStartTime()).Seconds()))
	c.finishRun(StateCompleted)
}

func (c *Controller) handleProcessChunk(ctx context.Context, cmd Command) {
	if cmd.Chunk == nil {
		c.sink.Send(NewErrorEvent("processChunk requires a chunk", ""))
		return
	}
	if c.cancelRequested.Load() {
		c.sink.Send(NewCancelledEvent())
		return
	}
	result, err := c.runChunk(ctx, *cmd.Chunk, cmd.Model, cmd.Language, 1, c.currentConfig())
	if err != nil {
		c.emitError(err)
		return
	}
	c.sink.Send(NewChunkCompleteEvent(result))
}

func (c *Controller) handleMergeResults(cmd Command) {
	merged := chunking.Merge(cmd.Results, c.currentConfig())
	c.sink.Send(NewMergeCompleteEvent(merged))
}

func (c *Controller) handleLegacyTranscribe(ctx context.Context, cmd Command) {
	if len(cmd.Audio) == 0 {
		c.sink.Send(NewLegacyErrorEvent("audio buffer is empty", "[worker] transcribe received no audio data"))
		return
	}
	chunk := chunking.AudioChunk{
		Index:       0,
		StartTime:   0,
		EndTime:     float64(len(cmd.Audio)) / chunking.SampleRate,
		AudioData:   cmd.Audio,
		IsLastChunk: true,
	}
	result, err := c.runChunk(ctx, chunk, cmd.Model, cmd.Language, 1, c.currentConfig())
	if err != nil {
		slog.Error("legacy transcription failed", "session_id", c.id, "error", err)
		c.sink.Send(NewLegacyErrorEvent(err.Error(), "[worker] "+errorDetails(err)))
		return
	}
	c.sink.Send(NewLegacyCompleteEvent(chunking.MergedTranscript{
		Text:   result.Text,
		Chunks: result.Chunks,
	}, "Transcription complete!"))
}

// runChunk recognizes a single chunk: memory guard, lazy model load with
// relayed loading progress, a status progress snapshot, then the
// recognition call itself.
func (c *Controller) runChunk(ctx context.Context, chunk chunking.AudioChunk, model, language string, total int, cfg chunking.Config) (chunking.ChunkResult, error) {
	c.guardMemory(cfg)

	if err := c.driver.EnsureModel(ctx, model, c.loadProgressFor(chunk.Index, total)); err != nil {
		return chunking.ChunkResult{}, err
	}

	c.sink.Send(NewProgressEvent(chunking.Progress{
		CurrentChunk:           chunk.Index,
		TotalChunks:            total,
		OverallProgress:        float64(c.completedChunks())/float64(total)*100 + 100/float64(total)*0.5,
		EstimatedTimeRemaining: c.estimateTimeRemaining(total),
		Status:                 fmt.Sprintf("Processing chunk %d of %d...", chunk.Index+1, total),
		ChunksCompleted:        c.completedChunks(),
		MemoryUsageMB:          c.memoryUsageMB(),
	}))

	result, err := c.driver.Recognize(ctx, chunk, model, language, nil)
	if err != nil {
		return chunking.ChunkResult{}, err
	}

	c.mu.Lock()
	c.chunksCompleted++
	c.mu.Unlock()
	slog.Debug("chunk recognized", "session_id", c.id, "chunk_index", chunk.Index,
		"words", len(result.Chunks), "processing_ms", result.ProcessingTime)
	return result, nil
}

func (c *Controller) loadProgressFor(chunkIndex, total int) recognizer.LoadProgress {
	return func(fraction float64) {
		c.sink.Send(NewProgressEvent(chunking.Progress{
			CurrentChunk:    chunkIndex,
			TotalChunks:     total,
			OverallProgress: float64(chunkIndex) / float64(total) * modelLoadProgressShare * fraction,
			Status:          fmt.Sprintf("Loading model... %d%%", int(math.Round(fraction*100))),
			ChunksCompleted: c.completedChunks(),
			MemoryUsageMB:   c.memoryUsageMB(),
		}))
	}
}

func (c *Controller) guardMemory(cfg chunking.Config) {
	usage := c.memoryUsageMB()
	if usage <= cfg.MaxMemoryMB {
		return
	}
	slog.Warn("memory usage above ceiling; backing off before next chunk",
		"session_id", c.id, "usage_mb", usage, "max_memory_mb", cfg.MaxMemoryMB)
	c.memoryBackoff()
}

func (c *Controller) estimateTimeRemaining(total int) float64 {
	c.mu.Lock()
	completed := c.chunksCompleted
	started := c.runStart
	c.mu.Unlock()
	if completed == 0 {
		return 0
	}
	elapsed := time.Since(started).Seconds()
	return math.Round(elapsed / float64(completed) * float64(total-completed))
}

func (c *Controller) beginRun() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateInitializing || c.state == StateProcessing {
		return false
	}
	c.state = StateInitializing
	c.chunkResults = nil
	c.chunksCompleted = 0
	c.runStart = time.Now()
	c.cancelRequested.Store(false)
	return true
}

// finishRun records the run's terminal state. The controller stays in the
// terminal state until the next initialize or run resets it.
func (c *Controller) finishRun(terminal State) {
	c.mu.Lock()
	c.state = terminal
	c.mu.Unlock()
}

func (c *Controller) cancelRun(ctx context.Context, run *repository.Run, stats chunking.Stats) {
	slog.Info("run cancelled", "session_id", c.id, "run_id", runID(run),
		"chunks_completed", c.completedChunks())
	c.sink.Send(NewCancelledEvent())
	c.completeRunRecord(ctx, repository.CompleteRunInput{
		RunID:                runID(run),
		Status:               repository.RunStatusCancelled,
		StopReason:           "cancelled by caller",
		EndedAt:              time.Now(),
		AudioDurationSeconds: stats.TotalDuration,
	})
	c.finishRun(StateCancelled)
}

func (c *Controller) failRun(ctx context.Context, run *repository.Run, err error) {
	slog.Error("run failed", "session_id", c.id, "run_id", runID(run), "error", err)
	c.emitError(err)
	c.completeRunRecord(ctx, repository.CompleteRunInput{
		RunID:      runID(run),
		Status:     repository.RunStatusFailed,
		StopReason: err.Error(),
		EndedAt:    time.Now(),
	})
	c.finishRun(StateFailed)
}

func (c *Controller) emitError(err error) {
	c.sink.Send(NewErrorEvent(err.Error(), errorDetails(err)))
}

func (c *Controller) createRun(ctx context.Context, cmd Command) *repository.Run {
	run, err := c.repo.CreateRun(ctx, repository.CreateRunInput{
		Model:     cmd.Model,
		Language:  cmd.Language,
		StartedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to create run record; continuing without persistence",
			"session_id", c.id, "error", err)
		return nil
	}
	return run
}

func (c *Controller) persistCompleted(ctx context.Context, run *repository.Run, stats chunking.Stats, chunkCount int, final chunking.MergedTranscript) {
	if run == nil {
		return
	}
	words := make([]repository.InsertWordInput, 0, len(final.Chunks))
	for i, w := range final.Chunks {
		words = append(words, repository.InsertWordInput{
			WordIndex:    i,
			Content:      w.Text,
			StartSeconds: w.Timestamp[0],
			EndSeconds:   w.Timestamp[1],
		})
	}
	if err := c.repo.InsertRunWords(ctx, run.ID, words); err != nil {
		slog.Error("failed to persist transcript words", "session_id", c.id, "run_id", run.ID, "error", err)
	}
	c.completeRunRecord(ctx, repository.CompleteRunInput{
		RunID:                run.ID,
		Status:               repository.RunStatusCompleted,
		EndedAt:              time.Now(),
		AudioDurationSeconds: stats.TotalDuration,
		ChunkCount:           chunkCount,
		WordCount:            len(final.Chunks),
		TranscriptText:       final.Text,
	})
}

func (c *Controller) completeRunRecord(ctx context.Context, input repository.CompleteRunInput) {
	if input.RunID == "" {
		return
	}
	if err := c.repo.CompleteRun(ctx, input); err != nil {
		slog.Error("failed to complete run record", "session_id", c.id, "run_id", input.RunID, "error", err)
	}
}

func (c *Controller) notifyWebhook(ctx context.Context, run *repository.Run, cmd Command, stats chunking.Stats, chunkCount int, final chunking.MergedTranscript) {
	if err := c.webhook.SendTranscript(ctx, webhook.TranscriptWebhookPayload{
		SchemaVersion:        webhook.TranscriptWebhookSchemaVersion,
		RunID:                runID(run),
		Model:                cmd.Model,
		Language:             cmd.Language,
		AudioDurationSeconds: stats.TotalDuration,
		ChunkCount:           chunkCount,
		WordCount:            len(final.Chunks),
		Text:                 final.Text,
		Words:                final.Chunks,
		CompletedAt:          time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		slog.Error("failed to send transcript webhook", "session_id", c.id, "run_id", runID(run), "error", err)
	}
}

func (c *Controller) currentConfig() chunking.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

func (c *Controller) completedChunks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chunksCompleted
}

func (c *Controller) runStartTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runStart
}

// formatDuration renders seconds as m:ss for log and status strings.
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func runID(run *repository.Run) string {
	if run == nil {
		return ""
	}
	return run.ID
}

func errorDetails(err error) string {
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return ""
}
