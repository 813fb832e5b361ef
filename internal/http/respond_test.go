package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrors_StatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: quantity", service.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("order: %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: referenced", service.ErrConflict), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	e := NewErrors(true, zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.code, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.err.Error(), body.Message)
		})
	}
}

func TestErrors_StackOnlyOutsideProduction(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	var body ErrorResponse
	rec := httptest.NewRecorder()
	NewErrors(false, zap.NewNop()).Write(rec, req, errors.New("boom"))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body.Stack)

	body = ErrorResponse{}
	rec = httptest.NewRecorder()
	NewErrors(true, zap.NewNop()).Write(rec, req, errors.New("boom"))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Empty(t, body.Stack)
}
