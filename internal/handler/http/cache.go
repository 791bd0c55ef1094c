package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront-sync/internal/cache"
	"github.com/utafrali/storefront-sync/pkg/httputil"
	"github.com/utafrali/storefront-sync/pkg/validator"
)

// Invalidator is the invalidation pipeline surface the handlers need.
type Invalidator interface {
	InvalidateAll(ctx context.Context, reason string) cache.Result
	OnEntityMutated(ctx context.Context, entityType, entityID, action string) cache.Result
}

// CacheHandler handles HTTP requests for cache invalidation.
type CacheHandler struct {
	invalidator Invalidator
	logger      *slog.Logger
}

// NewCacheHandler creates a new cache invalidation handler.
func NewCacheHandler(inv Invalidator, logger *slog.Logger) *CacheHandler {
	return &CacheHandler{invalidator: inv, logger: logger}
}

// InvalidateRequest is the JSON request body for cache invalidation.
type InvalidateRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=created updated deleted"`
}

// Invalidate handles POST /api/v1/cache/invalidate.
// The result body is returned on failure too, so callers can see which layers
// went through before deciding to retry.
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	var req InvalidateRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res := h.invalidator.OnEntityMutated(r.Context(), "product", req.ProductID, req.Action)

	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: res})
}
