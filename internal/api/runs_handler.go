// Package api exposes analysis runs over a JSON HTTP API.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wiastat/app"
	"wiastat/domain/core"
	"wiastat/domain/sample"
	"wiastat/internal/errors"
	"wiastat/ports"
)

// ServiceFactory creates a fresh analysis service for one request.
type ServiceFactory func() (*app.AnalysisService, error)

// RunsHandler handles analysis run requests
type RunsHandler struct {
	newService ServiceFactory
	runs       ports.RunRepository
	logger     *zap.Logger
}

// NewRunsHandler creates a new runs handler. A nil repository makes runs
// ephemeral: they are computed and returned but cannot be listed or fetched.
func NewRunsHandler(newService ServiceFactory, runs ports.RunRepository, logger *zap.Logger) *RunsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunsHandler{newService: newService, runs: runs, logger: logger.Named("api")}
}

// CreateRunRequest is the body of POST /api/runs.
type CreateRunRequest struct {
	Samples []*sample.Sample `json:"samples" binding:"required,min=1"`
}

// RegisterRoutes mounts the run endpoints on r.
func (h *RunsHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/api/runs")
	g.POST("", h.CreateRun)
	g.GET("", h.ListRuns)
	g.GET("/:id", h.GetRun)
	g.DELETE("/:id", h.DeleteRun)
}

// NewRouter builds a gin engine serving the run endpoints.
func NewRouter(h *RunsHandler, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	h.RegisterRoutes(r)
	return r
}

// CreateRun runs the full comparison plan over the posted samples.
func (h *RunsHandler) CreateRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	for i, s := range req.Samples {
		if s == nil || s.Path == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sample " + strconv.Itoa(i) + " has no path"})
			return
		}
	}

	svc, err := h.newService()
	if err != nil {
		h.respondError(c, err)
		return
	}
	svc.Discover(req.Samples)
	if _, err := svc.RunStats(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}

	if h.runs == nil {
		c.JSON(http.StatusOK, svc.LastRun())
		return
	}
	run, err := svc.PersistRun(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

// ListRuns returns run summaries; limit and offset page through them.
func (h *RunsHandler) ListRuns(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return
	}

	runs, err := h.runs.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun returns one run with its comparisons.
func (h *RunsHandler) GetRun(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	run, err := h.runs.GetRun(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *RunsHandler) DeleteRun(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.runs.DeleteRun(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RunsHandler) requireStore(c *gin.Context) bool {
	if h.runs == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "run persistence is not configured"})
		return false
	}
	return true
}

func (h *RunsHandler) respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}

// StatusFor maps an application error code to an HTTP status.
func StatusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeStatistics:
		return http.StatusUnprocessableEntity
	case errors.CodeTargetExists:
		return http.StatusConflict
	}
	if core.IsNotFoundError(err) {
		return http.StatusNotFound
	}
	if core.IsStatisticsError(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
