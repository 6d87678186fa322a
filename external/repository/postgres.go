package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foxseedlab/kugirin/internal/repository"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateRun(ctx context.Context, input repository.CreateRunInput) (*repository.Run, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO runs (model, language, started_at, status)
		 VALUES ($1, $2, $3, 'running')
		 RETURNING id, model, language, status, stop_reason, started_at, ended_at,
		           audio_duration_seconds, chunk_count, word_count, transcript_text,
		           created_at, updated_at`,
		input.Model, input.Language, input.StartedAt)
	var run repository.Run
	var endedAt *time.Time
	err := row.Scan(&run.ID, &run.Model, &run.Language, &run.Status, &run.StopReason,
		&run.StartedAt, &endedAt, &run.AudioDurationSeconds, &run.ChunkCount,
		&run.WordCount, &run.TranscriptText, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, err
	}
	run.EndedAt = endedAt
	return &run, nil
}

func (r *PostgresRepository) CompleteRun(ctx context.Context, input repository.CompleteRunInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE runs SET status = $2, stop_reason = $3, ended_at = $4,
		        audio_duration_seconds = $5, chunk_count = $6, word_count = $7,
		        transcript_text = $8, updated_at = NOW()
		 WHERE id = $1`,
		input.RunID, input.Status, input.StopReason, input.EndedAt,
		input.AudioDurationSeconds, input.ChunkCount, input.WordCount,
		input.TranscriptText)
	return err
}

func (r *PostgresRepository) InsertRunWords(ctx context.Context, runID string, words []repository.InsertWordInput) error {
	if len(words) == 0 {
		return nil
	}
	batch := make([][]any, 0, len(words))
	for _, w := range words {
		batch = append(batch, []any{runID, w.WordIndex, w.Content, w.StartSeconds, w.EndSeconds})
	}
	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"transcript_words"},
		[]string{"run_id", "word_index", "content", "start_seconds", "end_seconds"},
		pgx.CopyFromRows(batch))
	return err
}

func (r *PostgresRepository) ListWordsByRunID(ctx context.Context, runID string) ([]repository.RunWord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, run_id, word_index, content, start_seconds, end_seconds, created_at
		 FROM transcript_words WHERE run_id = $1 ORDER BY word_index ASC`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.RunWord
	for rows.Next() {
		var w repository.RunWord
		if err := rows.Scan(&w.ID, &w.RunID, &w.WordIndex, &w.Content, &w.StartSeconds, &w.EndSeconds, &w.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}
