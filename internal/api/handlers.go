package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amishk599/jobatlas/internal/filter"
	"github.com/amishk599/jobatlas/internal/model"
	"github.com/amishk599/jobatlas/internal/store"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	meta, err := s.store.GetSyncMetadata(r.Context())
	if err != nil {
		s.logger.Error("health check failed", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"syncStatus": meta.Status,
		"lastSyncAt": meta.LastSyncAt,
	})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	meta, err := s.store.GetSyncMetadata(r.Context())
	if err != nil {
		s.logger.Error("reading sync status", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read sync status")
		return
	}
	s.writeJSON(w, http.StatusOK, meta)
}

// handleTriggerSync starts a sync. By default it returns 202 and runs the
// sync in the background; with ?wait=true it returns the sync report.
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	if ok, retryAfter := s.cooldown.Allow("api"); !ok {
		secs := int(retryAfter.Round(time.Second).Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		s.writeError(w, http.StatusTooManyRequests, "sync triggered too recently")
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		report := s.syncer.FullSync(r.Context())
		switch {
		case report.Success:
			s.writeJSON(w, http.StatusOK, report)
		case report.Error == model.ErrSyncInProgress.Error():
			s.cooldown.Reset("api")
			s.writeJSON(w, http.StatusConflict, report)
		default:
			s.writeJSON(w, http.StatusInternalServerError, report)
		}
		return
	}

	// The sync lock decides whether this run proceeds; a metadata row left
	// at syncing by a crashed process must not block new runs.
	go s.syncer.FullSync(s.baseCtx)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	get := s.analytics.Get
	if r.URL.Query().Get("cached") == "true" {
		get = s.analytics.GetCached
	}
	c, err := get(r.Context(), key)
	switch {
	case errors.Is(err, model.ErrUnknownAnalyticsKey):
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown analytics key %q", key))
		return
	case errors.Is(err, model.ErrCacheMiss):
		s.writeError(w, http.StatusNotFound, "no cached entry for "+key)
		return
	case err != nil:
		s.logger.Error("reading analytics", "key", key, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read analytics")
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

var validStatuses = []string{model.StatusActive, model.StatusClosingSoon, model.StatusExpired, model.StatusArchived}

// parseQuery validates posting query parameters.
func parseQuery(r *http.Request) (filter.Query, error) {
	v := r.URL.Query()
	q := filter.Query{
		Category: v.Get("category"),
		Agency:   v.Get("agency"),
		Status:   v.Get("status"),
		Country:  v.Get("country"),
		Grade:    v.Get("grade"),
		Search:   v.Get("search"),
		Sort:     v.Get("sort"),
	}

	if q.Status != "" && !slices.Contains(validStatuses, q.Status) {
		return q, fmt.Errorf("invalid status %q", q.Status)
	}
	if q.Sort != "" && !slices.Contains(filter.SortKeys(), q.Sort) {
		return q, fmt.Errorf("invalid sort %q (allowed: %s)", q.Sort, strings.Join(filter.SortKeys(), ", "))
	}
	switch order := v.Get("order"); order {
	case "", "asc":
	case "desc":
		q.Desc = true
	default:
		return q, fmt.Errorf("invalid order %q", order)
	}

	var err error
	if q.Page, err = intParam(v.Get("page"), 1, 1<<20); err != nil {
		return q, fmt.Errorf("invalid page: %w", err)
	}
	if q.Limit, err = intParam(v.Get("limit"), 1, filter.MaxLimit); err != nil {
		return q, fmt.Errorf("invalid limit: %w", err)
	}
	return q, nil
}

// intParam parses an optional integer in [lo, hi]. Empty yields 0.
func intParam(s string, lo, hi int) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d out of range [%d, %d]", n, lo, hi)
	}
	return n, nil
}

func (s *Server) handleListPostings(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, total, err := s.store.QueryPostings(r.Context(), q)
	if err != nil {
		s.logger.Error("querying postings", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to query postings")
		return
	}

	c := filter.Build(q)
	out := make([]postingResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, toPostingResponse(p))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"postings": out,
		"total":    total,
		"page":     c.Offset/c.Limit + 1,
		"limit":    c.Limit,
	})
}

func (s *Server) handleGetPosting(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid posting id")
		return
	}
	p, err := s.store.GetPosting(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "posting not found")
		return
	}
	if err != nil {
		s.logger.Error("reading posting", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read posting")
		return
	}
	s.writeJSON(w, http.StatusOK, toPostingResponse(p))
}
