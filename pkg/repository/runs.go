package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/starscope/pkg/domain"
)

// RunRepository keeps per-run aggregate statistics history
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Run is one recorded analysis run
type Run struct {
	ID               int64     `db:"id"`
	StartedAt        time.Time `db:"started_at"`
	DurationMs       int64     `db:"duration_ms"`
	Total            int       `db:"total"`
	Analyzed         int       `db:"analyzed"`
	Cached           int       `db:"cached"`
	Failed           int       `db:"failed"`
	TotalTokens      int       `db:"total_tokens"`
	TotalWebSearches int       `db:"total_web_searches"`
}

// Stats converts the stored row back to domain stats
func (r Run) Stats() domain.Stats {
	return domain.Stats{
		Total:            r.Total,
		Analyzed:         r.Analyzed,
		Cached:           r.Cached,
		Failed:           r.Failed,
		TotalTokens:      r.TotalTokens,
		TotalWebSearches: r.TotalWebSearches,
	}
}

// SaveRun records a completed analysis run
func (r *RunRepository) SaveRun(ctx context.Context, stats domain.Stats, startedAt time.Time, duration time.Duration) error {
	run := Run{
		StartedAt:        startedAt,
		DurationMs:       duration.Milliseconds(),
		Total:            stats.Total,
		Analyzed:         stats.Analyzed,
		Cached:           stats.Cached,
		Failed:           stats.Failed,
		TotalTokens:      stats.TotalTokens,
		TotalWebSearches: stats.TotalWebSearches,
	}

	query := `
		INSERT INTO runs (
			started_at, duration_ms, total, analyzed, cached, failed,
			total_tokens, total_web_searches
		) VALUES (
			:started_at, :duration_ms, :total, :analyzed, :cached, :failed,
			:total_tokens, :total_web_searches
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	var runs []Run
	err := r.db.SelectContext(ctx, &runs,
		"SELECT * FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
