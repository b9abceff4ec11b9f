package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
)

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind apperror.Kind
		want int
	}{
		{apperror.KindNotFound, http.StatusNotFound},
		{apperror.KindValidation, http.StatusBadRequest},
		{apperror.KindForbidden, http.StatusForbidden},
		{apperror.KindUnauthorized, http.StatusUnauthorized},
		{apperror.KindInsufficientStock, http.StatusUnprocessableEntity},
		{apperror.KindConcurrentModification, http.StatusConflict},
		{apperror.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForKind(tt.kind))
		})
	}
}

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler())
	r.GET("/", handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorHandler_AppError(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		_ = c.Error(apperror.NewInsufficientStock(60, 50))
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInsufficientStock, body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, float64(60), details["requested"])
	assert.Equal(t, float64(50), details["available"])
}

func TestErrorHandler_HidesInternalCause(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		_ = c.Error(errors.New("pq: password authentication failed"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, w.Body.String(), "password")
	assert.Equal(t, "req-42", body["details"].(map[string]any)["request_id"])
}

func TestRecovery(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		panic("boom")
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Equal(t, "req-42", body["details"].(map[string]any)["request_id"])
}
