package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 500
)

type healthResponse struct {
	Status    string `json:"status"`
	Transport string `json:"transport,omitempty"`
	Uptime    string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondWithJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Transport: s.transport,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondWithError(w, http.StatusNotFound, "history is not available")
		return
	}

	h := s.history.Load()
	company := r.URL.Query().Get("company")
	if company == "" {
		s.respondWithJSON(w, http.StatusOK, h)
		return
	}

	entry, ok := h.Entry(company)
	if !ok {
		s.respondWithError(w, http.StatusNotFound, "company has no history")
		return
	}
	s.respondWithJSON(w, http.StatusOK, model.ScanHistory{company: entry})
}

type runResponse struct {
	ID         string    `json:"id"`
	Company    string    `json:"company"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Candidates int       `json:"candidates"`
	Fetched    int       `json:"fetched"`
	Leaks      int       `json:"leaks"`
	Outcome    string    `json:"outcome"`
	Steps      []string  `json:"steps,omitempty"`
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.respondWithError(w, http.StatusNotFound, "scan runs are not available")
		return
	}

	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunLimit)
	}

	records, err := s.runs.ListRuns(r.Context(), r.URL.Query().Get("company"), limit)
	if err != nil {
		s.logger.Error("failed to list scan runs", "error", err)
		s.respondWithError(w, http.StatusInternalServerError, "could not list scan runs")
		return
	}

	out := make([]runResponse, len(records))
	for i, rec := range records {
		out[i] = runResponse{
			ID:         rec.ID,
			Company:    rec.Company,
			StartedAt:  rec.StartedAt,
			FinishedAt: rec.FinishedAt,
			Candidates: rec.Candidates,
			Fetched:    rec.Fetched,
			Leaks:      rec.Leaks,
			Outcome:    string(rec.Outcome),
			Steps:      rec.Steps,
		}
	}
	s.respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
