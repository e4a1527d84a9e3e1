package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aretw0/fullform/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// maxBodySize bounds request bodies; form trees are small.
const maxBodySize = 4 << 20

// SessionView is the wire form of a live session.
type SessionView struct {
	domain.Payload
	Valid bool `json:"valid"`
}

// AnswerRequest is the body of POST /sessions/{id}/answers.
type AnswerRequest struct {
	Ix     string `json:"ix"`
	Answer any    `json:"answer"`
}

// ReconcileResult is returned after a server response is applied.
type ReconcileResult struct {
	SessionID string                `json:"session_id"`
	SeqID     int                   `json:"seq_id"`
	Stats     domain.ReconcileStats `json:"stats"`
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// OpenSession handles POST /sessions.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := domain.ParsePayload(data)
	if err != nil {
		s.fail(w, "OpenSession", err)
		return
	}
	form, err := s.Sessions.Open(r.Context(), *p)
	if err != nil {
		s.fail(w, "OpenSession", err)
		return
	}
	w.Header().Set("Location", "/sessions/"+form.SessionID())
	writeJSON(w, http.StatusCreated, SessionView{Payload: form.Payload(), Valid: true})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	form, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	valid := true
	for _, q := range form.Questions() {
		if !q.IsValid() {
			valid = false
			break
		}
	}
	writeJSON(w, http.StatusOK, SessionView{Payload: form.Payload(), Valid: valid})
}

// CloseSession handles DELETE /sessions/{id}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "CloseSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyResponse handles POST /sessions/{id}/responses.
func (s *Server) ApplyResponse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	stats, err := s.Sessions.Reconcile(r.Context(), id, data, r.URL.Query().Get("ix"))
	if err != nil {
		s.fail(w, "ApplyResponse", err)
		return
	}
	form, err := s.Sessions.Get(r.Context(), id)
	if err != nil {
		s.fail(w, "ApplyResponse", err)
		return
	}
	writeJSON(w, http.StatusOK, ReconcileResult{SessionID: id, SeqID: form.SeqID(), Stats: stats})
}

// AnswerQuestion handles POST /sessions/{id}/answers.
func (s *Server) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var body AnswerRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil || strings.TrimSpace(body.Ix) == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.Sessions.Answer(r.Context(), chi.URLParam(r, "id"), body.Ix, body.Answer); err != nil {
		s.fail(w, "AnswerQuestion", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending", "ix": body.Ix})
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Sessions.Get(r.Context(), id); err != nil {
		s.fail(w, "SubscribeEvents", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming not supported")
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	keep := map[domain.EventType]bool{}
	if types := r.URL.Query().Get("types"); types != "" {
		for _, t := range strings.Split(types, ",") {
			keep[domain.EventType(strings.TrimSpace(t))] = true
		}
	}

	ch, cancel := s.Sessions.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.Logger.Info("SSE: Subscribing to session events", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "session_id", id)
			return
		case evt, ok := <-ch:
			if !ok {
				fmt.Fprintf(w, "event: closed\ndata: %s\n\n", id)
				flusher.Flush()
				return
			}
			if len(keep) > 0 && !keep[evt.Type] {
				continue
			}
			data, err := json.Marshal(evt)
			if err != nil {
				s.Logger.Warn("SSE: event encode failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()
		}
	}
}
