package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeTokenRevoked, http.StatusUnauthorized},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodePersistence, http.StatusServiceUnavailable},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestStatusForDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      *shared.DomainError
		expected int
	}{
		{"specific validation code", shared.NewDomainError("EMPTY_CART", "cart is empty"), http.StatusBadRequest},
		{"not found", shared.NewNotFoundError("product not found"), http.StatusNotFound},
		{"persistence", shared.NewPersistenceError("write failed", errors.New("conn reset")), http.StatusServiceUnavailable},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized},
		{"no kind, known code", &shared.DomainError{Code: shared.CodeNotFound}, http.StatusNotFound},
		{"no kind, unknown code", &shared.DomainError{Code: "SOMETHING"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusForDomainError(tt.err))
		})
	}
}

func TestErrorCodeFormat(t *testing.T) {
	for code := range ErrorCodeHTTPStatus {
		if strings.HasPrefix(code, "ERR_") {
			assert.Equal(t, strings.ToUpper(code), code)
		}
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrCodeBadRequest, "bad")
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "bad", resp.Error.Message)
	assert.Empty(t, resp.Error.RequestID)
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID("EMPTY_CART", "cart is empty", "req-1")
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{{Field: "qty", Message: "This field is required"}}
	resp := NewValidationErrorResponse("Request validation failed", "req-2", details)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, details, resp.Error.Details)
}

func TestErrorResponseJSON(t *testing.T) {
	raw, err := json.Marshal(NewErrorResponse(shared.CodeNotFound, "Bill not found"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
	assert.NotContains(t, errObj, "details")
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total, pageSize, pages int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta([]int{}, int64(tt.total), 1, tt.pageSize)
		assert.Equal(t, tt.pages, resp.Meta.TotalPages, "total=%d size=%d", tt.total, tt.pageSize)
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	empty := shared.NewPaginated[string](nil, 0, 1, 20)
	resp := NewPaginatedResponse(&empty)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{}, resp.Data)
	assert.Equal(t, 1, resp.Meta.Page)

	page := shared.NewPaginated([]string{"12", "11"}, 42, 2, 20)
	resp = NewPaginatedResponse(&page)
	assert.Equal(t, []string{"12", "11"}, resp.Data)
	assert.Equal(t, int64(42), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
