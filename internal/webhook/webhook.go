package webhook

import (
	"context"

	"github.com/foxseedlab/kugirin/internal/chunking"
)

const TranscriptWebhookSchemaVersion = 1

type TranscriptWebhookPayload struct {
	SchemaVersion        int             `json:"schemaVersion"`
	RunID                string          `json:"runId"`
	Model                string          `json:"model"`
	Language             string          `json:"language"`
	AudioDurationSeconds float64         `json:"audioDurationSeconds"`
	ChunkCount           int             `json:"chunkCount"`
	WordCount            int             `json:"wordCount"`
	Text                 string          `json:"text"`
	Words                []chunking.Word `json:"words"`
	CompletedAt          string          `json:"completedAt"`
}

type Sender interface {
	SendTranscript(ctx context.Context, payload TranscriptWebhookPayload) error
}
