package session

import "github.com/foxseedlab/kugirin/internal/chunking"

// CommandType tags the canonical internal form of an inbound control
// message. The transport layer parses every wire shape, including the
// legacy single-shot one, into a Command before the controller sees it.
type CommandType string

const (
	CommandInitialize     CommandType = "initialize"
	CommandProcessAudio   CommandType = "processAudio"
	CommandProcessChunk   CommandType = "processChunk"
	CommandMergeResults   CommandType = "mergeResults"
	CommandCancel         CommandType = "cancel"
	CommandGetMemoryUsage CommandType = "getMemoryUsage"

	// CommandTranscribe is the legacy single-shot shape: audio, model and
	// language with no chunking plan. It runs as a one-chunk run and
	// reports through the simplified completion shape.
	CommandTranscribe CommandType = "transcribe"
)

type Command struct {
	Type     CommandType
	Config   *chunking.Partial
	Audio    []float32
	Chunk    *chunking.AudioChunk
	Model    string
	Language string
	Results  []chunking.ChunkResult
}

// IsLongRunning reports whether the command processes audio and should be
// handled on its own goroutine so cancel and memory queries stay responsive.
func (t CommandType) IsLongRunning() bool {
	switch t {
	case CommandProcessAudio, CommandProcessChunk, CommandTranscribe:
		return true
	default:
		return false
	}
}
