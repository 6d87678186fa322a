package repository

import (
	"context"
	"time"
)

type CreateRunInput struct {
	Model     string
	Language  string
	StartedAt time.Time
}

type CompleteRunInput struct {
	RunID                string
	Status               RunStatus
	StopReason           string
	EndedAt              time.Time
	AudioDurationSeconds float64
	ChunkCount           int
	WordCount            int
	TranscriptText       string
}

type InsertWordInput struct {
	WordIndex    int
	Content      string
	StartSeconds float64
	EndSeconds   float64
}

type RunRepository interface {
	CreateRun(ctx context.Context, input CreateRunInput) (*Run, error)
	CompleteRun(ctx context.Context, input CompleteRunInput) error
}

type TranscriptRepository interface {
	InsertRunWords(ctx context.Context, runID string, words []InsertWordInput) error
	ListWordsByRunID(ctx context.Context, runID string) ([]RunWord, error)
}

type Repository interface {
	RunRepository
	TranscriptRepository
}
