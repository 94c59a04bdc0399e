package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sproutbook/sproutbook/internal/services"
	"github.com/sproutbook/sproutbook/pkg/response"
)

// StoryHandler serves bedtime story requests.
type StoryHandler struct {
	stories *services.StoryService
}

// NewStoryHandler constructs a StoryHandler.
func NewStoryHandler(stories *services.StoryService) *StoryHandler {
	return &StoryHandler{stories: stories}
}

type requestStoryRequest struct {
	ChildID string `json:"child_id" validate:"required,uuid4"`
	Title   string `json:"title" validate:"omitempty,max=256"`
	Prompt  string `json:"prompt" validate:"omitempty,max=2000"`
}

// POST /api/stories
func (h *StoryHandler) Request(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req requestStoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	story, err := h.stories.Request(requestContext(c), userID, services.RequestStoryInput{
		ChildID: req.ChildID,
		Title:   req.Title,
		Prompt:  req.Prompt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, story)
}

// GET /api/children/:id/stories
func (h *StoryHandler) ListForChild(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stories, err := h.stories.List(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stories)
}

// POST /api/stories/:id/favorite
func (h *StoryHandler) ToggleFavorite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	story, err := h.stories.ToggleFavorite(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, story)
}
