package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sproutbook/sproutbook/internal/services"
	"github.com/sproutbook/sproutbook/pkg/response"
)

// AlbumHandler serves album curation.
type AlbumHandler struct {
	albums *services.AlbumService
}

// NewAlbumHandler constructs an AlbumHandler.
func NewAlbumHandler(albums *services.AlbumService) *AlbumHandler {
	return &AlbumHandler{albums: albums}
}

type createAlbumRequest struct {
	ChildID     string `json:"child_id" validate:"required,uuid4"`
	Title       string `json:"title" validate:"required,max=256"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	IsPrivate   bool   `json:"is_private"`
}

type updateAlbumRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=256"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsPrivate   *bool   `json:"is_private"`
}

type albumMemoryRequest struct {
	MemoryID string `json:"memory_id" validate:"required,uuid4"`
}

// POST /api/albums
func (h *AlbumHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createAlbumRequest
	if !bindAndValidate(c, &req) {
		return
	}

	album, err := h.albums.Create(requestContext(c), userID, services.CreateAlbumInput{
		ChildID:     req.ChildID,
		Title:       req.Title,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, album)
}

// GET /api/children/:id/albums
func (h *AlbumHandler) ListForChild(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	albums, err := h.albums.List(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, albums)
}

// GET /api/albums/:id
func (h *AlbumHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	album, err := h.albums.Get(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, album)
}

// PATCH /api/albums/:id
func (h *AlbumHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateAlbumRequest
	if !bindAndValidate(c, &req) {
		return
	}

	album, err := h.albums.Update(requestContext(c), userID, c.Param("id"), services.UpdateAlbumInput{
		Title:       req.Title,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, album)
}

// DELETE /api/albums/:id
func (h *AlbumHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.albums.Delete(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/albums/:id/memories
func (h *AlbumHandler) AddMemory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req albumMemoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	entry, err := h.albums.AddMemory(requestContext(c), userID, c.Param("id"), req.MemoryID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, entry)
}

// DELETE /api/albums/:id/memories/:memoryId
func (h *AlbumHandler) RemoveMemory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.albums.RemoveMemory(requestContext(c), userID, c.Param("id"), c.Param("memoryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

type albumOrderRequest struct {
	MemoryIDs []string `json:"memory_ids" validate:"required,min=1,dive,uuid"`
}

// PUT /api/albums/:id/order
func (h *AlbumHandler) Reorder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req albumOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.albums.Reorder(requestContext(c), userID, c.Param("id"), req.MemoryIDs); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"memory_ids": req.MemoryIDs})
}

// PUT /api/albums/:id/cover
func (h *AlbumHandler) SetCover(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req albumMemoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.albums.SetCover(requestContext(c), userID, c.Param("id"), req.MemoryID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cover_memory_id": req.MemoryID})
}
