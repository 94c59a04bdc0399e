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

// MemoryHandler serves the memory timeline, reactions and comments.
type MemoryHandler struct {
	memories *services.MemoryService
}

// NewMemoryHandler constructs a MemoryHandler.
func NewMemoryHandler(memories *services.MemoryService) *MemoryHandler {
	return &MemoryHandler{memories: memories}
}

type createMemoryRequest struct {
	ChildID string `json:"child_id" validate:"required,uuid4"`
	Title   string `json:"title" validate:"required,max=256"`
	Content string `json:"content" validate:"omitempty,max=10000"`
	Type    string `json:"type" validate:"omitempty,memorytype"`

	ImagePath     string `json:"image_path" validate:"omitempty,max=512"`
	VideoPath     string `json:"video_path" validate:"omitempty,max=512"`
	AudioPath     string `json:"audio_path" validate:"omitempty,max=512"`
	ThumbnailPath string `json:"thumbnail_path" validate:"omitempty,max=512"`

	MemoryDate string   `json:"memory_date" validate:"omitempty"`
	Tags       []string `json:"tags" validate:"omitempty,dive,max=64"`
	Location   string   `json:"location" validate:"omitempty,max=256"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`

	IsMilestone bool `json:"is_milestone"`
	IsPrivate   bool `json:"is_private"`
}

type updateMemoryRequest struct {
	Title      *string  `json:"title" validate:"omitempty,max=256"`
	Content    *string  `json:"content" validate:"omitempty,max=10000"`
	MemoryDate *string  `json:"memory_date" validate:"omitempty"`
	Tags       []string `json:"tags" validate:"omitempty,dive,max=64"`
	Location   *string  `json:"location" validate:"omitempty,max=256"`
	IsPrivate  *bool    `json:"is_private"`
}

// POST /api/memories
func (h *MemoryHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createMemoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.CreateMemoryInput{
		ChildID:       req.ChildID,
		Title:         req.Title,
		Content:       req.Content,
		Type:          models.MemoryType(req.Type),
		ImagePath:     req.ImagePath,
		VideoPath:     req.VideoPath,
		AudioPath:     req.AudioPath,
		ThumbnailPath: req.ThumbnailPath,
		Tags:          req.Tags,
		Location:      req.Location,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		IsMilestone:   req.IsMilestone,
		IsPrivate:     req.IsPrivate,
	}
	if req.MemoryDate != "" {
		memoryDate, err := time.Parse("2006-01-02", req.MemoryDate)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest("memory_date must be formatted as YYYY-MM-DD"))
			return
		}
		input.MemoryDate = memoryDate
	}

	memory, err := h.memories.Create(requestContext(c), userID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, memory)
}

// GET /api/children/:id/memories
func (h *MemoryHandler) ListForChild(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	filter := services.ListMemoriesInput{
		Type: models.MemoryType(c.Query("type")),
		Tag:  c.Query("tag"),
		From: parseDateQuery(c, "from"),
		To:   parseDateQuery(c, "to"),
	}
	memories, err := h.memories.List(requestContext(c), userID, c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, memories)
}

// GET /api/children/:id/memories/map
func (h *MemoryHandler) Map(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	points, err := h.memories.MapPoints(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, points)
}

// GET /api/memories/:id
func (h *MemoryHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	memory, err := h.memories.Get(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, memory)
}

// PATCH /api/memories/:id
func (h *MemoryHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateMemoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.UpdateMemoryInput{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		Location:  req.Location,
		IsPrivate: req.IsPrivate,
	}
	if req.MemoryDate != nil {
		memoryDate, err := time.Parse("2006-01-02", *req.MemoryDate)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest("memory_date must be formatted as YYYY-MM-DD"))
			return
		}
		input.MemoryDate = &memoryDate
	}

	memory, err := h.memories.Update(requestContext(c), userID, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, memory)
}

// DELETE /api/memories/:id
func (h *MemoryHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.memories.Delete(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type reactionRequest struct {
	Reaction string `json:"reaction" validate:"required,max=16"`
}

// POST /api/memories/:id/reactions
func (h *MemoryHandler) ToggleReaction(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req reactionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	present, err := h.memories.ToggleReaction(requestContext(c), userID, c.Param("id"), req.Reaction)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reaction": req.Reaction, "present": present})
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// POST /api/memories/:id/comments
func (h *MemoryHandler) AddComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req commentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	comment, err := h.memories.AddComment(requestContext(c), userID, c.Param("id"), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment)
}

// GET /api/memories/:id/comments
func (h *MemoryHandler) ListComments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	comments, err := h.memories.ListComments(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, comments)
}

// DELETE /api/comments/:id
func (h *MemoryHandler) DeleteComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.memories.DeleteComment(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
