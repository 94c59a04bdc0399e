package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sproutbook/sproutbook/internal/services"
	appErrors "github.com/sproutbook/sproutbook/pkg/errors"
	"github.com/sproutbook/sproutbook/pkg/response"
)

// MilestoneHandler serves the milestone catalog and achievements.
type MilestoneHandler struct {
	milestones *services.MilestoneService
}

// NewMilestoneHandler constructs a MilestoneHandler.
func NewMilestoneHandler(milestones *services.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestones: milestones}
}

type recordMilestoneRequest struct {
	ChildID               string `json:"child_id" validate:"required,uuid4"`
	PredefinedMilestoneID string `json:"predefined_milestone_id" validate:"omitempty,uuid"`
	CustomTitle           string `json:"custom_title" validate:"omitempty,max=256"`
	Description           string `json:"description" validate:"omitempty,max=2000"`
	AchievedDate          string `json:"achieved_date" validate:"omitempty"`
	Notes                 string `json:"notes" validate:"omitempty,max=2000"`
	PhotoPath             string `json:"photo_path" validate:"omitempty,max=512"`
}

// GET /api/milestones/catalog
func (h *MilestoneHandler) Catalog(c *gin.Context) {
	categories, err := h.milestones.Catalog(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, categories)
}

// POST /api/milestones
func (h *MilestoneHandler) Record(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req recordMilestoneRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.RecordMilestoneInput{
		ChildID:               req.ChildID,
		PredefinedMilestoneID: req.PredefinedMilestoneID,
		CustomTitle:           req.CustomTitle,
		Description:           req.Description,
		Notes:                 req.Notes,
		PhotoPath:             req.PhotoPath,
	}
	if req.AchievedDate != "" {
		achieved, err := time.Parse("2006-01-02", req.AchievedDate)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest("achieved_date must be formatted as YYYY-MM-DD"))
			return
		}
		input.AchievedDate = achieved
	}

	milestone, err := h.milestones.Record(requestContext(c), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, milestone)
}

// GET /api/children/:id/milestones
func (h *MilestoneHandler) ListForChild(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	milestones, err := h.milestones.List(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, milestones)
}

// DELETE /api/milestones/:id
func (h *MilestoneHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.milestones.Delete(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
