package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	appErrors "github.com/sproutbook/sproutbook/pkg/errors"
	"github.com/sproutbook/sproutbook/pkg/response"
)

// Health reports liveness plus database reachability, so an orchestrator can
// tell a wedged database apart from a dead process.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(requestContext(c))
		}
		if err != nil {
			response.Error(c, &appErrors.AppError{
				Code:       "UNAVAILABLE",
				Message:    "database unreachable",
				StatusCode: http.StatusServiceUnavailable,
			})
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
