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

// AuthHandler serves registration, login and the current-user endpoint.
type AuthHandler struct {
	users *services.UserService
	jwt   *auth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, jwt *auth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`

	// Optional first child, created together with the account.
	ChildName      string `json:"child_name,omitempty" validate:"omitempty,min=1,max=128"`
	ChildBirthDate string `json:"child_birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userDTO struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Avatar    string      `json:"avatar,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type authResponse struct {
	User  userDTO `json:"user"`
	Token string  `json:"token"`
}

func toUserDTO(user *models.User) userDTO {
	return userDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.RegisterInput{
		User: services.CreateUserInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		},
		ChildName: req.ChildName,
	}
	if req.ChildBirthDate != "" {
		birth, err := time.Parse("2006-01-02", req.ChildBirthDate)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest("child_birth_date must be YYYY-MM-DD"))
			return
		}
		input.ChildBirthDate = &birth
	}

	// Self-registration always creates an owner account; family members come
	// in through invitations instead.
	user, err := h.users.Register(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(auth.AccessTokenInput{UserID: user.ID, Role: user.Role})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusCreated, authResponse{User: toUserDTO(user), Token: token})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Username, req.Password)
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

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, toUserDTO(user))
}
