package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/draftq-processor/internal/domain"
	"github.com/andresuchdata/draftq-processor/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const ServiceName = "DraftQ Processor"

type ProcessHandler struct {
	processService *service.ProcessService
}

func NewProcessHandler(processService *service.ProcessService) *ProcessHandler {
	return &ProcessHandler{processService: processService}
}

// Home reports that the service is up.
func (h *ProcessHandler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": ServiceName, "status": "running"})
}

// Process waits for the object named by s3_key, converts it and returns a
// download link for the generated spreadsheet.
func (h *ProcessHandler) Process(c *gin.Context) {
	var req domain.ProcessingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must be JSON with an 's3_key' string"})
		return
	}

	link, err := h.processService.Process(c.Request.Context(), req.SourceKey)
	if err != nil {
		respondProcessError(c, req.SourceKey, err)
		return
	}

	c.JSON(http.StatusOK, domain.ProcessResponse{
		Status:      "ok",
		DownloadURL: link.URL,
		Message:     "Excel BOQ generated successfully",
		OutputKey:   link.Key,
		ExpiresAt:   link.ExpiresAt,
	})
}

// ListJobs returns recent processing runs, newest first.
func (h *ProcessHandler) ListJobs(c *gin.Context) {
	limit := parsePositiveIntWithDefault(c.Query("limit"), 50)

	jobs, err := h.processService.Jobs(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list jobs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func respondProcessError(c *gin.Context, key string, err error) {
	status := StatusForError(err)
	message := "internal error while processing file"

	switch status {
	case http.StatusBadRequest:
		message = "Missing 's3_key' in JSON body"
	case http.StatusNotFound:
		message = "File not found in S3 after waiting"
	case http.StatusBadGateway:
		message = "Storage backend request failed"
	}

	event := log.Error()
	if status < http.StatusInternalServerError {
		event = log.Warn()
	}
	event.Err(err).Str("key", key).Int("status", status).Msg("process request failed")

	c.JSON(status, gin.H{"error": message})
}

// StatusForError maps the processing error taxonomy onto HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrObjectNotFound):
		return http.StatusNotFound
	case domain.IsBackendError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parsePositiveIntWithDefault(value string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && v > 0 {
		return v
	}
	return fallback
}
