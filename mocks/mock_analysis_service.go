package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"concord/internal/domain"
	"concord/internal/engine"
	"concord/internal/service"
)

// MockAnalysisService is a mock implementation of service.AnalysisService.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) SubmitRun(ctx context.Context, input service.SubmitRunInput) (*domain.AnalysisRun, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisRun), args.Error(1)
}

func (m *MockAnalysisService) GetRun(ctx context.Context, id uuid.UUID) (*domain.AnalysisRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisRun), args.Error(1)
}

func (m *MockAnalysisService) ListRuns(ctx context.Context, offset, limit int) ([]domain.AnalysisRun, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.AnalysisRun), args.Int(1), args.Error(2)
}

func (m *MockAnalysisService) BuildReport(ctx context.Context, id uuid.UUID) (engine.Report, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(engine.Report), args.Error(1)
}

func (m *MockAnalysisService) ResolveConflict(ctx context.Context, runID uuid.UUID, conflictID, resolution string) (*domain.ConflictPoint, error) {
	args := m.Called(ctx, runID, conflictID, resolution)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConflictPoint), args.Error(1)
}

func (m *MockAnalysisService) DeleteRun(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
