package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "RAG API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAskLegacy serves the unversioned route, which only returns the answer text.
func (s *Server) handleAskLegacy(w http.ResponseWriter, r *http.Request) {
	answer, ok := s.ask(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, models.AskResponse{Question: answer.Question, Answer: answer.Text})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	answer, ok := s.ask(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, models.AskResponse{
		Question: answer.Question,
		Answer:   answer.Text,
		Sources:  answer.Sources,
		Numbers:  answer.Numbers,
	})
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) (*models.Answer, bool) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	s.logger.Debug("ask request", zap.String("question", req.Question))
	answer, err := s.service.Ask(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("ask failed", zap.String("question", req.Question), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return nil, false
	}
	return answer, true
}

func (s *Server) handlePassages(w http.ResponseWriter, r *http.Request) {
	var query models.PassageQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("passages request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	resp, err := s.service.Passages(r.Context(), query)
	if err != nil {
		s.logger.Error("passages failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.status.Status(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
