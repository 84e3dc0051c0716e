package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkovalev/casetrack/internal/common"
	"github.com/mkovalev/casetrack/internal/server/models"
	"github.com/mkovalev/casetrack/internal/server/repositories/snapshots"
)

type archiveRequest struct {
	Reason string `json:"reason"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse struct {
	Items []*models.ArchiveSnapshot `json:"items"`
	Total int64                     `json:"total"`
}

type statsResponse struct {
	TotalArchived     int64                          `json:"totalArchived"`
	ArchivedThisMonth int64                          `json:"archivedThisMonth"`
	RestoredThisMonth int64                          `json:"restoredThisMonth"`
	TotalByKind       map[models.AggregateKind]int64 `json:"totalByKind"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *HTTPServer) handleArchiveCase(w http.ResponseWriter, r *http.Request) {
	reason := decodeReason(r)

	snapshot, err := s.archive.ArchiveCase(r.Context(), chi.URLParam(r, "id"), actorFromContext(r.Context()), reason)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (s *HTTPServer) handleArchiveTodo(w http.ResponseWriter, r *http.Request) {
	reason := decodeReason(r)

	snapshot, err := s.archive.ArchiveTodo(r.Context(), chi.URLParam(r, "id"), actorFromContext(r.Context()), reason)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (s *HTTPServer) handleRestore(w http.ResponseWriter, r *http.Request) {
	result, err := s.restore.Restore(r.Context(), chi.URLParam(r, "id"), actorFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := snapshots.ListFilter{
		Page:            atoiDefault(q.Get("page"), 1),
		PageSize:        atoiDefault(q.Get("pageSize"), 20),
		Search:          q.Get("search"),
		SortBy:          q.Get("sortBy"),
		SortOrder:       q.Get("sortOrder"),
		IncludeRestored: q.Get("includeRestored") == "true",
	}

	if kind := models.AggregateKind(q.Get("kind")); kind != "" {
		if !kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown kind")
			return
		}
		filter.Kind = kind
	}

	items, total, err := s.catalog.List(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []*models.ArchiveSnapshot{}
	}

	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Stats(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalArchived:     stats.TotalArchived,
		ArchivedThisMonth: stats.ArchivedThisMonth,
		RestoredThisMonth: stats.RestoredThisMonth,
		TotalByKind:       stats.TotalByKind,
	})
}

// writeDomainError maps the engine's error taxonomy to HTTP statuses. The
// error text names the violated precondition or conflict so callers can
// decide whether a retry makes sense.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrorPreconditionFailed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, common.ErrorConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error(r.Context(), err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeReason(r *http.Request) string {
	var req archiveRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	return req.Reason
}

func atoiDefault(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
