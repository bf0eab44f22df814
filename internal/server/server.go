// ABOUTME: HTTP API serving journal entries from a storage backend.
// ABOUTME: chi router exposing per-owner entry routes, the public feed and a health check.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389-research/jot/internal/models"
	"github.com/2389-research/jot/internal/storage"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

// Handler serves the entry API.
type Handler struct {
	entries storage.EntryService
	logger  *slog.Logger
}

// listResponse is the envelope for list endpoints.
type listResponse struct {
	Entries    []models.JournalEntry `json:"entries"`
	TotalCount int                   `json:"total_count"`
}

// createRequest is the POST body for a new entry.
type createRequest struct {
	Title    *string     `json:"title"`
	Content  string      `json:"content"`
	Date     models.Date `json:"date"`
	IsPublic bool        `json:"is_public"`
}

// NewRouter wires the entry API. Every route except /healthz requires apiKey
// in the x-api-key header.
func NewRouter(entries storage.EntryService, apiKey string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{entries: entries, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)

	r.Group(func(api chi.Router) {
		api.Use(requireAPIKey(apiKey))
		h.RegisterRoutes(api)
	})
	return r
}

// RegisterRoutes registers the authenticated entry routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/owners/{owner}/entries", func(r chi.Router) {
		r.Get("/", h.handleListByOwner)
		r.Post("/", h.handleCreate)
		r.Delete("/{id}", h.handleDelete)
	})
	r.Get("/public/entries", h.handleListPublic)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}

	entries, err := h.entries.ListByOwner(r.Context(), owner)
	if err != nil {
		h.respondStorageError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Entries: entries, TotalCount: len(entries)})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	created, err := h.entries.Insert(r.Context(), &models.JournalEntry{
		OwnerID:  owner,
		Date:     req.Date,
		Title:    req.Title,
		Content:  req.Content,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		h.respondStorageError(w, r, err)
		return
	}

	h.logger.Info("entry stored", "owner", owner, "id", created.ID, "public", created.IsPublic)
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.entries.DeleteByID(r.Context(), owner, id); err != nil {
		h.respondStorageError(w, r, err)
		return
	}

	h.logger.Info("entry removed", "owner", owner, "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListPublic(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultPublicLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.entries.ListPublic(r.Context(), limit)
	if err != nil {
		h.respondStorageError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Entries: entries, TotalCount: len(entries)})
}

func ownerParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := chi.URLParam(r, "owner")
	if !models.ValidIdentity(owner) {
		respondError(w, http.StatusBadRequest, "invalid owner")
		return "", false
	}
	return owner, true
}

// respondStorageError maps storage errors onto HTTP statuses.
func (h *Handler) respondStorageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrInvalidEntry):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("storage failure",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
