package session

import "github.com/foxseedlab/kugirin/internal/chunking"

// Sink delivers outbound events to the session's caller. Implementations
// must be safe for concurrent use; events for one run are produced in order
// from a single goroutine.
type Sink interface {
	Send(event any)
}

const (
	EventInitialized   = "initialized"
	EventChunkComplete = "chunkComplete"
	EventProgress      = "progress"
	EventMergeComplete = "mergeComplete"
	EventMemoryUsage   = "memoryUsage"
	EventError         = "error"
	EventCancelled     = "cancelled"
	EventComplete      = "complete"
)

type InitializedEvent struct {
	Type  string         `json:"type"`
	Stats chunking.Stats `json:"stats"`
}

func NewInitializedEvent(stats chunking.Stats) InitializedEvent {
	return InitializedEvent{Type: EventInitialized, Stats: stats}
}

type ChunkCompleteEvent struct {
	Type   string               `json:"type"`
	Result chunking.ChunkResult `json:"result"`
}

func NewChunkCompleteEvent(result chunking.ChunkResult) ChunkCompleteEvent {
	return ChunkCompleteEvent{Type: EventChunkComplete, Result: result}
}

type ProgressEvent struct {
	Type     string            `json:"type"`
	Progress chunking.Progress `json:"progress"`
}

func NewProgressEvent(progress chunking.Progress) ProgressEvent {
	return ProgressEvent{Type: EventProgress, Progress: progress}
}

type MergeCompleteEvent struct {
	Type        string                    `json:"type"`
	FinalResult chunking.MergedTranscript `json:"finalResult"`
}

func NewMergeCompleteEvent(result chunking.MergedTranscript) MergeCompleteEvent {
	return MergeCompleteEvent{Type: EventMergeComplete, FinalResult: result}
}

type MemoryUsageEvent struct {
	Type    string  `json:"type"`
	UsageMB float64 `json:"usageMB"`
}

func NewMemoryUsageEvent(usageMB float64) MemoryUsageEvent {
	return MemoryUsageEvent{Type: EventMemoryUsage, UsageMB: usageMB}
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func NewErrorEvent(message, details string) ErrorEvent {
	return ErrorEvent{Type: EventError, Error: message, Details: details}
}

type CancelledEvent struct {
	Type string `json:"type"`
}

func NewCancelledEvent() CancelledEvent {
	return CancelledEvent{Type: EventCancelled}
}

// LegacyCompleteEvent is the simplified completion shape of the legacy
// single-shot protocol.
type LegacyCompleteEvent struct {
	Type     string                    `json:"type"`
	Result   chunking.MergedTranscript `json:"result"`
	Progress float64                   `json:"progress"`
	Status   string                    `json:"status"`
}

func NewLegacyCompleteEvent(result chunking.MergedTranscript, status string) LegacyCompleteEvent {
	return LegacyCompleteEvent{Type: EventComplete, Result: result, Progress: 100, Status: status}
}

// LegacyErrorEvent is the bare error shape of the legacy protocol; it has
// no type tag.
type LegacyErrorEvent struct {
	Error string `json:"error"`
	Debug string `json:"debug"`
}

func NewLegacyErrorEvent(message, debug string) LegacyErrorEvent {
	return LegacyErrorEvent{Error: message, Debug: debug}
}
