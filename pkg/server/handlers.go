package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pario-ai/listings/pkg/cache"
	"github.com/pario-ai/listings/pkg/models"
	"github.com/pario-ai/listings/pkg/repository"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCacheMetrics always answers 200; a store failure shows up in the
// body's error field.
func (s *Server) handleCacheMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Reporter.CacheMetrics(r.Context()))
}

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := s.deps.Cache.AllProperties(r.Context())
	if err != nil {
		s.log.Error("list properties", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch properties", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.PropertyList{Properties: props})
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, "Failed to fetch property", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	p, err := s.deps.Repo.Create(r.Context(), in)
	if err != nil {
		s.writeRepoError(w, "Failed to create property", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	p, err := s.deps.Repo.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeRepoError(w, "Failed to update property", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeRepoError(w, "Failed to delete property", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (models.PropertyInput, bool) {
	var in models.PropertyInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return in, false
	}
	return in, true
}

// writeRepoError maps mutation and lookup errors to responses. A failed
// invalidation is reported as a failure even though the row change committed.
func (s *Server) writeRepoError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "Property not found", err.Error())
	case errors.Is(err, repository.ErrInvalid):
		writeJSONError(w, http.StatusBadRequest, "Invalid property", err.Error())
	case errors.Is(err, cache.ErrInvalidation):
		s.log.Error("cache invalidation", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Cache invalidation failed", err.Error())
	default:
		s.log.Error(msg, zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, msg, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg, detail string) {
	body := map[string]string{"error": msg}
	if detail != "" {
		body["message"] = detail
	}
	writeJSON(w, status, body)
}
