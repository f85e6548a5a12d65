package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"concord/internal/domain"
	"concord/internal/engine"
	"concord/internal/reportexport"
	"concord/internal/service"
)

// AnalysisHandler handles analysis run endpoints.
type AnalysisHandler struct {
	analysisService service.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// SubmitRunRequest is the body for POST /runs: the raw per-model payloads
// collected by the upstream invocation layer for one content item.
type SubmitRunRequest struct {
	ContentRef    string                     `json:"content_ref" binding:"required"`
	UpstreamError string                     `json:"upstream_error"`
	Results       map[string]json.RawMessage `json:"results"`
}

// SubmitRun handles POST /api/v1/runs
func (h *AnalysisHandler) SubmitRun(c *gin.Context) {
	var req SubmitRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	run, err := h.analysisService.SubmitRun(c.Request.Context(), service.SubmitRunInput{
		ContentRef:    req.ContentRef,
		UpstreamError: domain.UpstreamError(req.UpstreamError),
		Results:       req.Results,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, run)
}

// ListRuns handles GET /api/v1/runs
func (h *AnalysisHandler) ListRuns(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	runs, total, err := h.analysisService.ListRuns(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetRun handles GET /api/v1/runs/:id
func (h *AnalysisHandler) GetRun(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}

	run, err := h.analysisService.GetRun(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, run)
}

// GetReport handles GET /api/v1/runs/:id/report
func (h *AnalysisHandler) GetReport(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}

	report, err := h.analysisService.BuildReport(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	data, err := engine.EncodeReport(report)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// ResolveConflictRequest is the body for the resolution write.
type ResolveConflictRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// ResolveConflict handles POST /api/v1/runs/:id/conflicts/:conflictId/resolution
func (h *AnalysisHandler) ResolveConflict(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}
	conflictID := c.Param("conflictId")

	var req ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	conflict, err := h.analysisService.ResolveConflict(c.Request.Context(), id, conflictID, req.Resolution)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, conflict)
}

// ExportCSV handles GET /api/v1/runs/:id/export/csv
func (h *AnalysisHandler) ExportCSV(c *gin.Context) {
	run, artifacts, ok := h.loadArtifacts(c)
	if !ok {
		return
	}

	filename := reportexport.BuildFilename(run.ContentRef, "csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Writer.WriteHeader(http.StatusOK)

	if _, err := c.Writer.Write(reportexport.BOM); err != nil {
		return
	}
	w := reportexport.NewCSVWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteEntityGroups(artifacts.EntityGroups); err != nil {
		return
	}
	w.Flush()
}

// ExportXLSX handles GET /api/v1/runs/:id/export/xlsx
func (h *AnalysisHandler) ExportXLSX(c *gin.Context) {
	run, artifacts, ok := h.loadArtifacts(c)
	if !ok {
		return
	}

	workbook, err := reportexport.BuildWorkbook(run, artifacts)
	if err != nil {
		HandleError(c, err)
		return
	}
	defer workbook.Close()

	filename := reportexport.BuildFilename(run.ContentRef, "xlsx")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Writer.WriteHeader(http.StatusOK)
	_ = workbook.Write(c.Writer)
}

// DeleteRun handles DELETE /api/v1/runs/:id
func (h *AnalysisHandler) DeleteRun(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}

	if err := h.analysisService.DeleteRun(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"deleted": id})
}

func (h *AnalysisHandler) loadArtifacts(c *gin.Context) (*domain.AnalysisRun, *domain.RunArtifacts, bool) {
	id, ok := parseRunID(c)
	if !ok {
		return nil, nil, false
	}
	run, err := h.analysisService.GetRun(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return nil, nil, false
	}
	artifacts, err := run.Artifacts()
	if err != nil {
		HandleError(c, err)
		return nil, nil, false
	}
	return run, artifacts, true
}

func parseRunID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_RUN_ID", "run id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
