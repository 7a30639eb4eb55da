package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.SuccessWithMeta(c, []string{"a", "b"}, 42, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(42), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
}

func TestBaseHandler_Created(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Created(c, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestHandleError_Taxonomy(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectStatus int
		expectCode   string
	}{
		{
			name:         "not found",
			err:          shared.ErrNotFound,
			expectStatus: http.StatusNotFound,
			expectCode:   dto.ErrCodeNotFound,
		},
		{
			name:         "gorm record not found",
			err:          gorm.ErrRecordNotFound,
			expectStatus: http.StatusNotFound,
			expectCode:   dto.ErrCodeNotFound,
		},
		{
			name:         "tenant violation",
			err:          shared.ErrTenantViolation,
			expectStatus: http.StatusForbidden,
			expectCode:   dto.ErrCodeTenantViolation,
		},
		{
			name:         "vehicle not available",
			err:          shared.ErrVehicleNotAvailable,
			expectStatus: http.StatusConflict,
			expectCode:   dto.ErrCodeVehicleNotAvailable,
		},
		{
			name:         "duplicate deal number",
			err:          shared.ErrDuplicateDealNumber,
			expectStatus: http.StatusConflict,
			expectCode:   dto.ErrCodeDuplicateDealNumber,
		},
		{
			name:         "already exists",
			err:          shared.ErrAlreadyExists,
			expectStatus: http.StatusConflict,
			expectCode:   dto.ErrCodeAlreadyExists,
		},
		{
			name:         "invalid state",
			err:          shared.ErrInvalidState,
			expectStatus: http.StatusUnprocessableEntity,
			expectCode:   dto.ErrCodeInvalidState,
		},
		{
			name:         "retry exhausted",
			err:          &persistence.RetryExhaustedError{Attempts: 4, Err: errors.New("serialization failure")},
			expectStatus: http.StatusConflict,
			expectCode:   dto.ErrCodeConflictRetryExhausted,
		},
		{
			name:         "pool timeout",
			err:          persistence.ErrPoolTimeout,
			expectStatus: http.StatusServiceUnavailable,
			expectCode:   dto.ErrCodePoolTimeout,
		},
		{
			name:         "shutting down",
			err:          persistence.ErrShuttingDown,
			expectStatus: http.StatusServiceUnavailable,
			expectCode:   dto.ErrCodeShuttingDown,
		},
		{
			name:         "unknown error",
			err:          errors.New("boom"),
			expectStatus: http.StatusInternalServerError,
			expectCode:   dto.ErrCodeInternal,
		},
	}

	h := &BaseHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectCode, resp.Error.Code)
		})
	}
}

func TestHandleError_ValidationError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, shared.NewFieldError("vin", "must be 17 characters"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "vin", resp.Error.Details[0].Field)
}

func TestHandleError_WrappedDomainError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, fmt.Errorf("lookup salesperson: %w", shared.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeNotFound)
}

func TestGetActorID(t *testing.T) {
	c, _ := newTestContext()
	assert.Nil(t, getActorID(c))

	c.Request.Header.Set("X-User-ID", "not-a-uuid")
	assert.Nil(t, getActorID(c))

	id := uuid.New()
	c.Request.Header.Set("X-User-ID", id.String())
	actor := getActorID(c)
	require.NotNil(t, actor)
	assert.Equal(t, id, *actor)
}
