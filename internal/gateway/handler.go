package gateway

import (
	"errors"
	"net/http"

	"github.com/bizmatters/graphide-orchestrator/internal/jsonutil"
	"github.com/bizmatters/graphide-orchestrator/internal/models"
	"github.com/bizmatters/graphide-orchestrator/internal/orchestration"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "graphide-orchestrator"

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	orchestrator *orchestration.Orchestrator
	logger       *zap.Logger
}

// NewHandler creates a new gateway handler
func NewHandler(orchestrator *orchestration.Orchestrator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func invalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: "Invalid request: " + err.Error(),
		Code:  models.ErrCodeInvalidRequest,
	})
}

// Root godoc
// @Summary Service banner
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
		"message": "GraphIDE orchestrator is running",
	})
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Ready godoc
// @Summary Readiness probe
// @Description Reports not ready while the completion service circuit breaker is open
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ready [get]
func (h *Handler) Ready(c *gin.Context) {
	if !h.orchestrator.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  "completion service circuit breaker is open",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Chat godoc
// @Summary Run an analysis stage
// @Description Routes the request to the roles of its stage and returns one output per role in order.
// @Description Failed role calls yield degraded outputs rather than an error.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.ChatRequest true "Stage and task"
// @Success 200 {object} models.ChatResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ServerErrorResponse
// @Router /chat [post]
func (h *Handler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	outputs := h.orchestrator.Route(c.Request.Context(), req)
	c.JSON(http.StatusOK, models.ChatResponse{
		Status:       models.StatusSuccess,
		AgentOutputs: outputs,
	})
}

// Scan godoc
// @Summary Acknowledge a scan
// @Description Records a scan session and returns its id. No analysis runs on this call.
// @Tags scan
// @Accept json
// @Produce json
// @Param request body models.ScanRequest true "Scan intent"
// @Success 200 {object} models.ScanResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ServerErrorResponse
// @Router /scan [post]
func (h *Handler) Scan(c *gin.Context) {
	var req models.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	record, err := h.orchestrator.AcknowledgeScan(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ServerErrorResponse{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ScanResponse{
		Status:  models.StatusSuccess,
		Message: "Scan initiated. ready for analysis.",
		Data:    map[string]interface{}{"files_count": record.FileCount},
		ScanID:  record.ID,
	})
}

// GetScan godoc
// @Summary Get a scan session
// @Tags scan
// @Produce json
// @Param id path string true "Scan ID"
// @Success 200 {object} models.SessionRecord
// @Failure 404 {object} models.ErrorResponse
// @Router /scan/{id} [get]
func (h *Handler) GetScan(c *gin.Context) {
	record, err := h.orchestrator.GetSession(c.Param("id"))
	if errors.Is(err, orchestration.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "Scan session not found",
			Code:  models.ErrCodeNotFound,
		})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ServerErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}

// Slice godoc
// @Summary Execute a graph slice query
// @Description Runs a CPGQL query on the graph engine and returns its raw output.
// @Tags slice
// @Accept json
// @Produce json
// @Param request body models.SliceRequest true "Query"
// @Success 200 {object} models.SliceResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ServerErrorResponse
// @Router /slice [post]
func (h *Handler) Slice(c *gin.Context) {
	var req models.SliceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.orchestrator.ExecuteSlice(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ServerErrorResponse{Detail: err.Error()})
		return
	}

	switch result.Status {
	case orchestration.SliceSucceeded:
		c.JSON(http.StatusOK, models.SliceResponse{
			Status:  models.StatusSuccess,
			Slices:  []models.Slice{{Raw: result.RawResult}},
			Message: "Slicing successful",
		})
	default:
		c.JSON(http.StatusOK, models.SliceResponse{
			Status:  models.StatusError,
			Slices:  []models.Slice{},
			Message: result.Message,
		})
	}
}

// Media godoc
// @Summary Generate a flowchart image
// @Description Accepts flowchart data as an object or a JSON string (markdown fences allowed).
// @Tags media
// @Accept json
// @Produce json
// @Param request body models.MediaRequest true "Flowchart data"
// @Success 200 {object} models.MediaResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ServerErrorResponse
// @Router /media [post]
func (h *Handler) Media(c *gin.Context) {
	var req models.MediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	resp, err := h.orchestrator.GenerateMedia(c.Request.Context(), req)
	if err != nil {
		var parseErr *jsonutil.ParseError
		if errors.As(err, &parseErr) {
			h.logger.Warn("flowchart data is not JSON", zap.String("preview", parseErr.Preview))
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ServerErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Verify godoc
// @Summary Verify a patch
// @Description Syntax-checks the patched code. Verification problems are reported in the body, never as an error status.
// @Tags verify
// @Accept json
// @Produce json
// @Param request body models.VerifyRequest true "Original and patched code"
// @Success 200 {object} models.VerifyResponse
// @Router /verify [post]
func (h *Handler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, models.VerifyResponse{
			Status:  models.StatusError,
			IsValid: false,
			Errors:  []string{err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, h.orchestrator.VerifyPatch(c.Request.Context(), req))
}
