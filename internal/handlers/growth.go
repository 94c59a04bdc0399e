package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sproutbook/sproutbook/internal/models"
	"github.com/sproutbook/sproutbook/internal/services"
	appErrors "github.com/sproutbook/sproutbook/pkg/errors"
	"github.com/sproutbook/sproutbook/pkg/response"
)

// GrowthHandler serves the growth chart.
type GrowthHandler struct {
	growth *services.GrowthService
}

// NewGrowthHandler constructs a GrowthHandler.
func NewGrowthHandler(growth *services.GrowthService) *GrowthHandler {
	return &GrowthHandler{growth: growth}
}

type recordGrowthRequest struct {
	ChildID    string  `json:"child_id" validate:"required,uuid4"`
	Type       string  `json:"type" validate:"required,measurement"`
	Value      float64 `json:"value" validate:"required,gt=0"`
	MeasuredAt string  `json:"measured_at" validate:"omitempty"`
	Notes      string  `json:"notes" validate:"omitempty,max=2000"`
}

// POST /api/growth
func (h *GrowthHandler) Record(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req recordGrowthRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.RecordGrowthInput{
		ChildID: req.ChildID,
		Type:    models.MeasurementType(req.Type),
		Value:   req.Value,
		Notes:   req.Notes,
	}
	if req.MeasuredAt != "" {
		measuredAt, err := time.Parse("2006-01-02", req.MeasuredAt)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest("measured_at must be formatted as YYYY-MM-DD"))
			return
		}
		input.MeasuredAt = measuredAt
	}

	record, err := h.growth.Record(requestContext(c), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, record)
}

// GET /api/children/:id/growth
func (h *GrowthHandler) Chart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	records, err := h.growth.Chart(requestContext(c), userID, c.Param("id"),
		models.MeasurementType(c.Query("type")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, records)
}

// DELETE /api/growth/:id
func (h *GrowthHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.growth.Delete(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
