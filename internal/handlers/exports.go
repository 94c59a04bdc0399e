package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sproutbook/sproutbook/internal/services"
	"github.com/sproutbook/sproutbook/pkg/response"
)

// ExportHandler serves full-album export jobs.
type ExportHandler struct {
	exports *services.ExportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(exports *services.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// POST /api/children/:id/exports
func (h *ExportHandler) Request(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	job, err := h.exports.Request(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, job)
}

// GET /api/children/:id/exports
func (h *ExportHandler) ListForChild(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	jobs, err := h.exports.List(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, jobs)
}

// GET /api/exports/:id
func (h *ExportHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	job, err := h.exports.Get(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, job)
}
