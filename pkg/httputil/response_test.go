package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func respond(fn gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	return w
}

func TestRespondWithError(t *testing.T) {
	w := respond(func(c *gin.Context) {
		RespondWithError(c, fmt.Errorf("failed to get doctor: %w", errors.NotFound("Doctor", nil)))
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusError, body.Status)
	assert.Equal(t, "Doctor not found", body.Message)
}

func TestRespondWithErrorHidesInternals(t *testing.T) {
	w := respond(func(c *gin.Context) {
		RespondWithError(c, fmt.Errorf("pq: connection refused"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRespondWithSuccessAndText(t *testing.T) {
	w := respond(func(c *gin.Context) {
		RespondWithSuccess(c, http.StatusCreated, []string{"09:00-09:30"})
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"status":"success","data":["09:00-09:30"]}`, w.Body.String())

	w = respond(func(c *gin.Context) {
		RespondWithText(c, http.StatusOK, "Appointment cancelled")
	})
	assert.Equal(t, "Appointment cancelled", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}
