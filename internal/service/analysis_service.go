package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"concord/internal/domain"
	"concord/internal/engine"
	"concord/internal/port"
)

// SubmitRunInput is one consolidation request: raw per-model payloads for
// a single content item, collected by the upstream invocation layer.
type SubmitRunInput struct {
	ContentRef    string
	UpstreamError domain.UpstreamError
	Results       map[string]json.RawMessage
}

// AnalysisService orchestrates the consolidation engine and run storage.
type AnalysisService interface {
	SubmitRun(ctx context.Context, input SubmitRunInput) (*domain.AnalysisRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*domain.AnalysisRun, error)
	ListRuns(ctx context.Context, offset, limit int) ([]domain.AnalysisRun, int, error)
	BuildReport(ctx context.Context, id uuid.UUID) (engine.Report, error)
	ResolveConflict(ctx context.Context, runID uuid.UUID, conflictID, resolution string) (*domain.ConflictPoint, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error
}

type analysisService struct {
	engine  *engine.Engine
	runRepo port.RunRepository
}

// NewAnalysisService creates a new AnalysisService implementation.
func NewAnalysisService(eng *engine.Engine, runRepo port.RunRepository) AnalysisService {
	return &analysisService{engine: eng, runRepo: runRepo}
}

func (s *analysisService) SubmitRun(ctx context.Context, input SubmitRunInput) (*domain.AnalysisRun, error) {
	output := s.engine.Analyze(input.Results, input.UpstreamError)

	run := &domain.AnalysisRun{
		ID:              uuid.New(),
		ContentRef:      input.ContentRef,
		UpstreamError:   string(input.UpstreamError),
		ModelCount:      len(output.Normalization.Results),
		ConflictCount:   len(output.Conflicts),
		ConfidenceScore: output.Consolidated.ConfidenceScore,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}

	raw := input.Results
	if raw == nil {
		raw = map[string]json.RawMessage{}
	}
	cols := []struct {
		name string
		dst  *json.RawMessage
		src  interface{}
	}{
		{"raw_results", &run.RawResults, raw},
		{"normalization", &run.Normalization, output.Normalization},
		{"comparisons", &run.Comparisons, output.Comparisons},
		{"entity_groups", &run.EntityGroups, output.EntityGroups},
		{"sentiment", &run.Sentiment, output.Sentiment},
		{"conflicts", &run.Conflicts, output.Conflicts},
		{"consolidated", &run.Consolidated, output.Consolidated},
	}
	for _, col := range cols {
		data, err := json.Marshal(col.src)
		if err != nil {
			return nil, fmt.Errorf("encoding run %s: %w", col.name, err)
		}
		*col.dst = data
	}

	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}

	log.Printf("service.AnalysisService: run %s consolidated — models=%d, conflicts=%d, confidence=%.2f",
		run.ID, run.ModelCount, run.ConflictCount, run.ConfidenceScore)
	return run, nil
}

func (s *analysisService) GetRun(ctx context.Context, id uuid.UUID) (*domain.AnalysisRun, error) {
	return s.runRepo.GetByID(ctx, id)
}

func (s *analysisService) ListRuns(ctx context.Context, offset, limit int) ([]domain.AnalysisRun, int, error) {
	return s.runRepo.List(ctx, offset, limit)
}

func (s *analysisService) BuildReport(ctx context.Context, id uuid.UUID) (engine.Report, error) {
	run, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		return engine.Report{}, err
	}
	artifacts, err := run.Artifacts()
	if err != nil {
		return engine.Report{}, err
	}

	var raw map[string]json.RawMessage
	if len(run.RawResults) > 0 {
		if err := json.Unmarshal(run.RawResults, &raw); err != nil {
			return engine.Report{}, fmt.Errorf("decoding run raw results: %w", err)
		}
	}

	return s.engine.BuildReport(time.Now().UTC(), artifacts.Consolidated, raw, artifacts.Normalization.Results), nil
}

// ResolveConflict writes a resolution onto one conflict of a stored run.
// The write is set-once: an already-resolved conflict is left untouched
// and the caller gets ErrConflictAlreadyResolved.
func (s *analysisService) ResolveConflict(ctx context.Context, runID uuid.UUID, conflictID, resolution string) (*domain.ConflictPoint, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	artifacts, err := run.Artifacts()
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range artifacts.Conflicts {
		if artifacts.Conflicts[i].ID == conflictID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.ErrConflictNotFound
	}

	if err := artifacts.Conflicts[idx].SetResolution(resolution); err != nil {
		return nil, err
	}
	// Conflicts and conflicting analyses are emitted in the same order, so
	// the consolidated view mirrors the resolution at the same index.
	if idx < len(artifacts.Consolidated.ConflictingAnalyses) {
		artifacts.Consolidated.ConflictingAnalyses[idx].Resolution = resolution
	}

	conflictsJSON, err := json.Marshal(artifacts.Conflicts)
	if err != nil {
		return nil, fmt.Errorf("encoding resolved conflicts: %w", err)
	}
	consolidatedJSON, err := json.Marshal(artifacts.Consolidated)
	if err != nil {
		return nil, fmt.Errorf("encoding consolidated insights: %w", err)
	}
	if err := s.runRepo.UpdateConflicts(ctx, runID, conflictsJSON, consolidatedJSON); err != nil {
		return nil, err
	}

	resolved := artifacts.Conflicts[idx]
	log.Printf("service.AnalysisService: run %s conflict %s resolved", runID, conflictID)
	return &resolved, nil
}

func (s *analysisService) DeleteRun(ctx context.Context, id uuid.UUID) error {
	return s.runRepo.Delete(ctx, id)
}
