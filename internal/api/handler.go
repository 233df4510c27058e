// Package api provides the HTTP resolve service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sqlcatalog/internal/catalog"
	"sqlcatalog/internal/domain"
	"sqlcatalog/internal/middleware"
	"sqlcatalog/internal/sqlident"
)

const (
	// maxBatchPaths caps the number of paths in one batch request.
	maxBatchPaths = 1000
	// batchConcurrency bounds lookups running at once for a batch request.
	batchConcurrency = 8
	// maxBatchBody bounds the batch request body.
	maxBatchBody = 1 << 20
)

// Source yields the catalog requests resolve against. Implementations may
// swap the catalog between calls; each request sees one consistent tree.
type Source interface {
	Current() catalog.Catalog
}

// StaticSource always returns the same catalog.
type StaticSource struct{ Catalog catalog.Catalog }

// Current implements Source.
func (s StaticSource) Current() catalog.Catalog { return s.Catalog }

// Options tune request handling. Zero values disable the corresponding limit.
type Options struct {
	MaxPathSegments int
	LookupTimeout   time.Duration
}

// Handler serves resolve requests.
type Handler struct {
	source Source
	opts   Options
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(source Source, opts Options, logger *slog.Logger) *Handler {
	return &Handler{source: source, opts: opts, logger: logger}
}

// Resolve handles GET /v1/resolve/{kind}?path=<dotted path>.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	k, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	path, err := h.parsePath(r.URL.Query().Get("path"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.lookupContext(r.Context())
	defer cancel()

	v, err := catalog.Find(ctx, h.source.Current(), k, path, findOptions(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Describe(k, path, v))
}

// ResolveBatch handles POST /v1/resolve/{kind} with a BatchRequest body. The
// first failing path fails the whole batch.
func (h *Handler) ResolveBatch(w http.ResponseWriter, r *http.Request) {
	k, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody)).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if len(req.Paths) > maxBatchPaths {
		h.writeError(w, r, domain.ErrValidation("batch has %d paths, at most %d allowed", len(req.Paths), maxBatchPaths))
		return
	}

	paths := make([][]string, len(req.Paths))
	for i, text := range req.Paths {
		if paths[i], err = h.parsePath(text); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	ctx, cancel := h.lookupContext(r.Context())
	defer cancel()

	values, err := catalog.ResolveMany(ctx, h.source.Current(), k, paths, findOptions(r), batchConcurrency)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := BatchResponse{Results: make([]ObjectResponse, len(values))}
	for i, v := range values {
		resp.Results[i] = Describe(k, paths[i], v)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Kinds handles GET /v1/kinds.
func (h *Handler) Kinds(w http.ResponseWriter, _ *http.Request) {
	kinds := domain.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	writeJSON(w, http.StatusOK, map[string][]string{"kinds": names})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"catalog": h.source.Current().FullName(),
	})
}

func (h *Handler) parsePath(text string) ([]string, error) {
	path, err := sqlident.ParsePath(text)
	if err != nil {
		return nil, err
	}
	if err := catalog.CheckPathLength(path, h.opts.MaxPathSegments); err != nil {
		return nil, err
	}
	return path, nil
}

func (h *Handler) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.opts.LookupTimeout > 0 {
		return context.WithTimeout(ctx, h.opts.LookupTimeout)
	}
	return context.WithCancel(ctx)
}

// findOptions forwards the request ID to catalog implementations.
func findOptions(r *http.Request) catalog.FindOptions {
	id := middleware.RequestIDFromContext(r.Context())
	if id == "" {
		return catalog.FindOptions{}
	}
	return catalog.FindOptions{Attributes: map[string]string{"request_id": id}}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	resp := ErrorResponse{Code: status, Message: err.Error()}
	var pe *catalog.PathError
	if errors.As(err, &pe) {
		resp.Message = pe.Err.Error()
		resp.Path = sqlident.FormatPath(pe.Path)
	}
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "lookup failed",
			"error", err,
			"request_id", middleware.RequestIDFromContext(r.Context()))
		resp.Message = "internal error"
	}
	if status == http.StatusGatewayTimeout {
		resp.Message = "lookup timed out"
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
