package port

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"concord/internal/domain"
)

// RunRepository persists analysis runs and their derived artifacts so
// conflict resolutions stay auditable across requests.
type RunRepository interface {
	Create(ctx context.Context, run *domain.AnalysisRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRun, error)
	List(ctx context.Context, offset, limit int) ([]domain.AnalysisRun, int, error)
	// UpdateConflicts rewrites the conflicts and consolidated columns after
	// a resolution write.
	UpdateConflicts(ctx context.Context, id uuid.UUID, conflicts, consolidated json.RawMessage) error
	Delete(ctx context.Context, id uuid.UUID) error
}
