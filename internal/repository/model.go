package repository

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

type Run struct {
	ID                   string
	Model                string
	Language             string
	Status               RunStatus
	StopReason           string
	StartedAt            time.Time
	EndedAt              *time.Time
	AudioDurationSeconds float64
	ChunkCount           int
	WordCount            int
	TranscriptText       string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type RunWord struct {
	ID           string
	RunID        string
	WordIndex    int
	Content      string
	StartSeconds float64
	EndSeconds   float64
	CreatedAt    time.Time
}
