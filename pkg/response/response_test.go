package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/sproutbook/sproutbook/pkg/errors"
)

func record(t *testing.T, write func(c *gin.Context)) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	write(c)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestSuccessEnvelope(t *testing.T) {
	rec, body := record(t, func(c *gin.Context) {
		Success(c, http.StatusCreated, gin.H{"name": "Maya"})
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, body.Success)
	require.Nil(t, body.Error)
}

func TestErrorCarriesCode(t *testing.T) {
	rec, body := record(t, func(c *gin.Context) {
		Error(c, appErrors.NewFeatureLocked("bedtime_stories", 3))
	})

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, body.Success)
	require.Equal(t, "FEATURE_LOCKED", body.Error.Code)
	require.Equal(t, "bedtime_stories unlocks at age 3", body.Error.Message)
}

func TestErrorMasksUnknownErrors(t *testing.T) {
	rec, body := record(t, func(c *gin.Context) {
		Error(c, errors.New("pq: connection refused"))
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
	require.NotContains(t, body.Error.Message, "pq:")
}
