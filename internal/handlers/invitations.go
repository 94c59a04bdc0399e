package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sproutbook/sproutbook/internal/auth"
	"github.com/sproutbook/sproutbook/internal/models"
	"github.com/sproutbook/sproutbook/internal/services"
	appErrors "github.com/sproutbook/sproutbook/pkg/errors"
	"github.com/sproutbook/sproutbook/pkg/response"
)

// InvitationHandler serves the invitation lifecycle.
type InvitationHandler struct {
	invitations *services.InvitationService
	jwt         *auth.JWTService
	now         func() time.Time
}

// NewInvitationHandler constructs an InvitationHandler.
func NewInvitationHandler(invitations *services.InvitationService, jwt *auth.JWTService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations, jwt: jwt, now: time.Now}
}

type issueInvitationRequest struct {
	ChildID string `json:"child_id" validate:"required,uuid4"`
	Email   string `json:"email" validate:"required,email"`
	Role    string `json:"role" validate:"omitempty,role"`
}

type acceptInvitationRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

type invitationDTO struct {
	ID        string                  `json:"id"`
	Email     string                  `json:"email"`
	ChildID   string                  `json:"child_id"`
	ChildName string                  `json:"child_name,omitempty"`
	Role      models.Role             `json:"role"`
	Status    models.InvitationStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
	ExpiresAt time.Time               `json:"expires_at"`
}

type invitationIssuedResponse struct {
	Invitation invitationDTO `json:"invitation"`
	Token      string        `json:"token"`
}

func (h *InvitationHandler) toDTO(inv *models.Invitation) invitationDTO {
	dto := invitationDTO{
		ID:        inv.ID,
		Email:     inv.Email,
		ChildID:   inv.ChildID,
		Role:      inv.Role,
		Status:    inv.Status(h.now()),
		CreatedAt: inv.CreatedAt,
		ExpiresAt: inv.ExpiresAt,
	}
	if inv.Child != nil {
		dto.ChildName = inv.Child.Name
	}
	return dto
}

// POST /api/invitations
func (h *InvitationHandler) Issue(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req issueInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	inv, err := h.invitations.Issue(requestContext(c), userID, services.IssueInvitationInput{
		ChildID: req.ChildID,
		Email:   req.Email,
		Role:    models.Role(req.Role),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	// The raw token is returned exactly once, at issue time, so the inviter
	// can share it out of band if email never arrives.
	response.Success(c, http.StatusCreated, invitationIssuedResponse{
		Invitation: h.toDTO(inv),
		Token:      inv.Token,
	})
}

// GET /api/invitations/:token is the public preview before accepting.
func (h *InvitationHandler) Preview(c *gin.Context) {
	inv, err := h.invitations.GetByToken(requestContext(c), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.toDTO(inv))
}

// POST /api/invitations/accept is public. It creates the account when needed
// and returns a fresh session token.
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req acceptInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.invitations.Accept(requestContext(c), req.Token, services.AcceptInvitationInput{
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(auth.AccessTokenInput{UserID: user.ID, Role: user.Role})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, authResponse{User: toUserDTO(user), Token: token})
}

// GET /api/children/:id/invitations
func (h *InvitationHandler) ListForChild(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	invitations, err := h.invitations.ListForChild(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	dtos := make([]invitationDTO, 0, len(invitations))
	for i := range invitations {
		dtos = append(dtos, h.toDTO(&invitations[i]))
	}
	response.Success(c, http.StatusOK, dtos)
}

// DELETE /api/invitations/:id
func (h *InvitationHandler) Revoke(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.invitations.Revoke(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
