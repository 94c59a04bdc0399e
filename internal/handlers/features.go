package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sproutbook/sproutbook/internal/features"
	"github.com/sproutbook/sproutbook/pkg/response"
)

// FeatureCatalog returns the static feature unlock table. It is public
// reference data; per-child unlock state lives on the child's feature report.
func FeatureCatalog() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, features.Catalog())
	}
}
