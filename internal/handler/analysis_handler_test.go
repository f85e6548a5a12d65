package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"concord/internal/domain"
	"concord/internal/handler"
	"concord/mocks"
)

func setupRouter(svc *mocks.MockAnalysisService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewAnalysisHandler(svc)

	r := gin.New()
	runs := r.Group("/api/v1/runs")
	runs.POST("", h.SubmitRun)
	runs.GET("", h.ListRuns)
	runs.GET("/:id", h.GetRun)
	runs.GET("/:id/export/csv", h.ExportCSV)
	runs.POST("/:id/conflicts/:conflictId/resolution", h.ResolveConflict)
	runs.DELETE("/:id", h.DeleteRun)
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSubmitRun_Created(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	run := &domain.AnalysisRun{ID: uuid.New(), ContentRef: "Q3 earnings call", ModelCount: 2}
	svc.On("SubmitRun", mock.Anything, mock.AnythingOfType("service.SubmitRunInput")).Return(run, nil)

	body := `{
		"content_ref": "Q3 earnings call",
		"results": {"claude": {"confidence": 0.9, "results": {}}}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}

func TestSubmitRun_MissingContentRef(t *testing.T) {
	svc := new(mocks.MockAnalysisService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewBufferString(`{"results": {}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
	svc.AssertNotCalled(t, "SubmitRun", mock.Anything, mock.Anything)
}

func TestGetRun_NotFound(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	id := uuid.New()
	svc.On("GetRun", mock.Anything, id).Return(nil, domain.ErrRunNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+id.String(), nil)
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RUN_NOT_FOUND", resp.Error.Code)
}

func TestGetRun_InvalidID(t *testing.T) {
	svc := new(mocks.MockAnalysisService)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_RUN_ID", resp.Error.Code)
	svc.AssertNotCalled(t, "GetRun", mock.Anything, mock.Anything)
}

func TestListRuns_PaginationDefaults(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	svc.On("ListRuns", mock.Anything, 0, 20).Return([]domain.AnalysisRun{}, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 20, resp.Meta.Limit)
	svc.AssertExpectations(t)
}

func TestListRuns_LimitCapped(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	svc.On("ListRuns", mock.Anything, 5, 20).Return([]domain.AnalysisRun{}, 42, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs?offset=5&limit=500", nil)
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 42, resp.Meta.Total)
	svc.AssertExpectations(t)
}

func TestResolveConflict_AlreadyResolved(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	id := uuid.New()
	svc.On("ResolveConflict", mock.Anything, id, "cf-01", "new take").
		Return(nil, domain.ErrConflictAlreadyResolved)

	url := fmt.Sprintf("/api/v1/runs/%s/conflicts/cf-01/resolution", id)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"resolution": "new take"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFLICT_ALREADY_RESOLVED", resp.Error.Code)
}

func TestResolveConflict_Resolved(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	id := uuid.New()
	resolved := &domain.ConflictPoint{ID: "cf-01", Resolution: "claude's reading holds"}
	svc.On("ResolveConflict", mock.Anything, id, "cf-01", "claude's reading holds").
		Return(resolved, nil)

	url := fmt.Sprintf("/api/v1/runs/%s/conflicts/cf-01/resolution", id)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"resolution": "claude's reading holds"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)
}

func TestExportCSV_WritesAttachment(t *testing.T) {
	groups := []domain.EntityConsensusGroup{{
		Text:      "Acme Corp",
		Consensus: domain.ConsensusAgree,
		Mentions: []domain.EntityMention{
			{Model: "claude", Type: "organization", Confidence: 0.9},
		},
	}}
	groupsJSON, err := json.Marshal(groups)
	require.NoError(t, err)

	run := &domain.AnalysisRun{
		ID:           uuid.New(),
		ContentRef:   "Q3 earnings call",
		EntityGroups: groupsJSON,
	}
	svc := new(mocks.MockAnalysisService)
	svc.On("GetRun", mock.Anything, run.ID).Return(run, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+run.ID.String()+"/export/csv", nil)
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Q3_earnings_call_")
	assert.Contains(t, rec.Body.String(), "Acme Corp")
	assert.Contains(t, rec.Body.String(), "Entity,Consensus")
}

func TestDeleteRun_OK(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	id := uuid.New()
	svc.On("DeleteRun", mock.Anything, id).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/runs/"+id.String(), nil)
	rec := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
