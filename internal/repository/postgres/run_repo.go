package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"concord/internal/domain"
)

type runRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a new PostgreSQL-backed RunRepository.
func NewRunRepo(db *sqlx.DB) *runRepo {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run *domain.AnalysisRun) error {
	query := `
		INSERT INTO analysis_runs (
			id, content_ref, upstream_error,
			raw_results, normalization, comparisons, entity_groups,
			sentiment, conflicts, consolidated,
			model_count, conflict_count, confidence_score,
			created_at, updated_at
		) VALUES (
			:id, :content_ref, :upstream_error,
			:raw_results, :normalization, :comparisons, :entity_groups,
			:sentiment, :conflicts, :consolidated,
			:model_count, :conflict_count, :confidence_score,
			NOW(), NOW()
		)`

	_, err := r.db.NamedExecContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("inserting analysis run: %w", err)
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRun, error) {
	var run domain.AnalysisRun
	query := `SELECT * FROM analysis_runs WHERE id = $1`
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("getting analysis run: %w", err)
	}
	return &run, nil
}

func (r *runRepo) List(ctx context.Context, offset, limit int) ([]domain.AnalysisRun, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM analysis_runs`); err != nil {
		return nil, 0, fmt.Errorf("counting analysis runs: %w", err)
	}

	runs := []domain.AnalysisRun{}
	query := `
		SELECT * FROM analysis_runs
		ORDER BY created_at DESC, id DESC
		OFFSET $1 LIMIT $2`
	if err := r.db.SelectContext(ctx, &runs, query, offset, limit); err != nil {
		return nil, 0, fmt.Errorf("listing analysis runs: %w", err)
	}
	return runs, total, nil
}

func (r *runRepo) UpdateConflicts(ctx context.Context, id uuid.UUID, conflicts, consolidated json.RawMessage) error {
	query := `
		UPDATE analysis_runs SET
			conflicts = $2,
			consolidated = $3,
			updated_at = NOW()
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, conflicts, consolidated)
	if err != nil {
		return fmt.Errorf("updating run conflicts: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *runRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analysis_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting analysis run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}
