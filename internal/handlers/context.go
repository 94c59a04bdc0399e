package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/sproutbook/sproutbook/internal/middleware"
	appErrors "github.com/sproutbook/sproutbook/pkg/errors"
	"github.com/sproutbook/sproutbook/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID pulls the authenticated user id from the request, writing a
// 401 response when it is missing.
func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}
