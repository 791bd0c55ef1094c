package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	err := NotFound("product", "prod-1")

	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Contains(t, err.Message, "prod-1")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("product", "x"), http.StatusNotFound},
		{"invalid input", InvalidInput("bad"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("nope"), http.StatusUnauthorized},
		{"unavailable", Unavailable("down"), http.StatusServiceUnavailable},
		{"internal", Internal(fmt.Errorf("boom")), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("outer: %w", ErrInvalidInput), http.StatusBadRequest},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrapPreservesChain(t *testing.T) {
	inner := NotFound("category", "cat-1")
	wrapped := Wrap(inner, "load category page")

	require.ErrorIs(t, wrapped, ErrNotFound)
	assert.Contains(t, wrapped.Error(), "load category page")
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
}
