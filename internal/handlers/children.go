package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sproutbook/sproutbook/internal/services"
	appErrors "github.com/sproutbook/sproutbook/pkg/errors"
	"github.com/sproutbook/sproutbook/pkg/response"
)

// ChildHandler serves child profiles and their feature reports.
type ChildHandler struct {
	children *services.ChildService
}

// NewChildHandler constructs a ChildHandler.
func NewChildHandler(children *services.ChildService) *ChildHandler {
	return &ChildHandler{children: children}
}

type createChildRequest struct {
	Name          string `json:"name" validate:"required,max=128"`
	BirthDate     string `json:"birth_date" validate:"required"`
	BirthTime     string `json:"birth_time" validate:"omitempty"`
	BirthLocation string `json:"birth_location" validate:"omitempty,max=256"`
	Avatar        string `json:"avatar" validate:"omitempty,max=512"`
}

type updateChildRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=128"`
	BirthLocation *string `json:"birth_location" validate:"omitempty,max=256"`
	Avatar        *string `json:"avatar" validate:"omitempty,max=512"`
}

// POST /api/children
func (h *ChildHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createChildRequest
	if !bindAndValidate(c, &req) {
		return
	}

	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("birth_date must be formatted as YYYY-MM-DD"))
		return
	}

	input := services.CreateChildInput{
		Name:          req.Name,
		BirthDate:     birthDate,
		BirthLocation: req.BirthLocation,
		Avatar:        req.Avatar,
	}
	if req.BirthTime != "" {
		birthTime, err := time.Parse(time.RFC3339, req.BirthTime)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest("birth_time must be an RFC 3339 timestamp"))
			return
		}
		input.BirthTime = &birthTime
	}

	child, err := h.children.Create(requestContext(c), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, child)
}

// GET /api/children
func (h *ChildHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	children, err := h.children.ListAccessible(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, children)
}

// GET /api/children/:id
func (h *ChildHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx := requestContext(c)
	child, err := h.children.GetForUser(ctx, userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.children.FeatureReport(ctx, userID, child.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"child":    child,
		"age":      report.Age,
		"unlocked": report.Unlocked,
		"upcoming": report.Upcoming,
	})
}

// PATCH /api/children/:id
func (h *ChildHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateChildRequest
	if !bindAndValidate(c, &req) {
		return
	}

	child, err := h.children.Update(requestContext(c), userID, c.Param("id"), services.UpdateChildInput{
		Name:          req.Name,
		BirthLocation: req.BirthLocation,
		Avatar:        req.Avatar,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, child)
}

// GET /api/children/:id/features
func (h *ChildHandler) Features(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	report, err := h.children.FeatureReport(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// POST /api/children/:id/transfer
func (h *ChildHandler) TransferOwnership(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	child, err := h.children.TransferOwnership(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, child)
}

type linkChildAccountRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// POST /api/children/:id/link-account
func (h *ChildHandler) LinkAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req linkChildAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}

	child, err := h.children.LinkChildAccount(requestContext(c), userID, c.Param("id"), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, child)
}
