package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront-sync/internal/domain"
	snap "github.com/utafrali/storefront-sync/internal/snapshot"
	"github.com/utafrali/storefront-sync/internal/store"
	"github.com/utafrali/storefront-sync/pkg/httputil"
)

// Rebuilder triggers snapshot rebuilds.
type Rebuilder interface {
	Build(ctx context.Context) (*snap.Result, error)
}

// StaticDataHandler serves snapshot artifacts over HTTP for storefronts that
// cannot read the static file tree directly.
type StaticDataHandler struct {
	store   store.Store
	builder Rebuilder
	logger  *slog.Logger
}

// NewStaticDataHandler creates a new static data handler.
func NewStaticDataHandler(st store.Store, builder Rebuilder, logger *slog.Logger) *StaticDataHandler {
	return &StaticDataHandler{store: st, builder: builder, logger: logger}
}

// Manifest handles GET /api/v1/static-data/manifest.
// A missing artifact triggers an on-demand rebuild; concurrent callers share
// it through the builder. The ETag derives from the manifest version so it
// only changes when the snapshot does.
func (h *StaticDataHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := h.store.Read(ctx, snap.ManifestPath)
	if errors.Is(err, store.ErrNotExist) {
		if _, buildErr := h.builder.Build(ctx); buildErr != nil {
			h.logger.ErrorContext(ctx, "on-demand snapshot rebuild failed",
				slog.String("error", buildErr.Error()),
			)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "SNAPSHOT_UNAVAILABLE",
					Message: "snapshot is not available and could not be rebuilt",
				},
			})
			return
		}
		raw, err = h.store.Read(ctx, snap.ManifestPath)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read manifest artifact",
			slog.String("error", err.Error()),
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INTERNAL_ERROR", Message: "failed to read manifest"},
		})
		return
	}

	var stamp struct {
		Version int64 `json:"version"`
	}
	etag := ""
	if err := json.Unmarshal(raw, &stamp); err == nil && stamp.Version > 0 {
		etag = fmt.Sprintf("%q", fmt.Sprintf("v%d", stamp.Version))
	}

	if etag != "" {
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// Homepage handles GET /api/v1/static-data/homepage.
// The storefront renders something for every shopper, so a broken snapshot
// degrades to an empty but well-typed bundle instead of an error.
func (h *StaticDataHandler) Homepage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := h.store.Read(ctx, snap.HomepagePath)
	if err != nil {
		if !errors.Is(err, store.ErrNotExist) {
			h.logger.ErrorContext(ctx, "failed to read homepage artifact",
				slog.String("error", err.Error()),
			)
		}
		httputil.WriteJSON(w, http.StatusOK, domain.EmptyHomepageBundle())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
