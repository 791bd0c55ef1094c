package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront-sync/pkg/httputil"
)

// SnapshotHandler exposes manual snapshot rebuilds.
type SnapshotHandler struct {
	invalidator Invalidator
	logger      *slog.Logger
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(inv Invalidator, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{invalidator: inv, logger: logger}
}

// Rebuild handles POST /api/v1/snapshot/rebuild. A manual rebuild also drops
// the page cache, otherwise shoppers keep seeing pages rendered from the old
// snapshot.
func (h *SnapshotHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	res := h.invalidator.InvalidateAll(r.Context(), "manual")

	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: res})
}
