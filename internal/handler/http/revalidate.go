package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/utafrali/storefront-sync/pkg/errors"
	"github.com/utafrali/storefront-sync/pkg/httputil"
)

// PageCache drops rendered storefront pages.
type PageCache interface {
	InvalidateTag(ctx context.Context, tag string) (int, error)
	InvalidatePath(ctx context.Context, path string) (int, error)
}

// RevalidateHandler handles on-demand page cache revalidation, the hook the
// storefront calls after content edits. When a secret is configured every
// request must present it.
type RevalidateHandler struct {
	pageCache PageCache
	secret    string
	logger    *slog.Logger
}

// NewRevalidateHandler creates a new revalidation handler. An empty secret
// disables authentication.
func NewRevalidateHandler(pageCache PageCache, secret string, logger *slog.Logger) *RevalidateHandler {
	return &RevalidateHandler{pageCache: pageCache, secret: secret, logger: logger}
}

// RevalidateRequest carries revalidation targets. Exactly one target kind is
// used per request: path wins over tag, tag wins over tags.
type RevalidateRequest struct {
	Path   string   `json:"path"`
	Tag    string   `json:"tag"`
	Tags   []string `json:"tags"`
	Secret string   `json:"secret"`
}

// RevalidateResponse reports what was revalidated.
type RevalidateResponse struct {
	Success     bool     `json:"success"`
	Revalidated []string `json:"revalidated"`
	Now         int64    `json:"now"`
}

// Revalidate handles POST and GET /api/v1/revalidate.
func (h *RevalidateHandler) Revalidate(w http.ResponseWriter, r *http.Request) {
	req := h.parseRequest(r)

	if h.secret != "" {
		if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.secret)) != 1 {
			httputil.WriteError(w, r, apperrors.Unauthorized("invalid revalidation secret"), h.logger)
			return
		}
	}

	ctx := r.Context()
	var (
		revalidated []string
		err         error
	)

	switch {
	case req.Path != "":
		_, err = h.pageCache.InvalidatePath(ctx, req.Path)
		revalidated = []string{"path:" + req.Path}
	case req.Tag != "":
		_, err = h.pageCache.InvalidateTag(ctx, req.Tag)
		revalidated = []string{"tag:" + req.Tag}
	case len(req.Tags) > 0:
		for _, tag := range req.Tags {
			if _, tagErr := h.pageCache.InvalidateTag(ctx, tag); tagErr != nil {
				err = tagErr
				break
			}
			revalidated = append(revalidated, "tag:"+tag)
		}
	default:
		httputil.WriteError(w, r,
			apperrors.InvalidInput("one of path, tag or tags is required"), h.logger)
		return
	}

	if err != nil {
		h.logger.ErrorContext(ctx, "revalidation failed",
			slog.String("error", err.Error()),
		)
		httputil.WriteError(w, r, apperrors.Wrap(err, "revalidation failed"), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RevalidateResponse{
		Success:     true,
		Revalidated: revalidated,
		Now:         time.Now().UnixMilli(),
	})
}

// parseRequest merges query parameters with the optional JSON body. Query
// parameters win so GET requests work from anything that can hit a URL.
func (h *RevalidateHandler) parseRequest(r *http.Request) RevalidateRequest {
	var req RevalidateRequest

	if r.Body != nil && r.Method == http.MethodPost {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	q := r.URL.Query()
	if v := q.Get("path"); v != "" {
		req.Path = v
	}
	if v := q.Get("tag"); v != "" {
		req.Tag = v
	}
	if v := q.Get("tags"); v != "" {
		req.Tags = strings.Split(v, ",")
	}
	if v := q.Get("secret"); v != "" {
		req.Secret = v
	}

	return req
}
