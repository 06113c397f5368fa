package server

import (
	"net/http"

	apihttp "github.com/wolfeidau/sheetclock/internal/http"
)

type startSessionRequest struct {
	DocumentID    string `json:"documentId"`
	DocumentTitle string `json:"documentTitle"`
}

type activeSessionResponse struct {
	Active  bool `json:"active"`
	Session any  `json:"session,omitempty"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := apihttp.DecodeJSON(w, r, &req); err != nil {
		apihttp.WriteError(w, r, err, "Error starting work session")
		return
	}

	active, err := s.svc.Engine.Start(r.Context(), caller(r), req.DocumentID, req.DocumentTitle)
	if err != nil {
		apihttp.WriteError(w, r, err, "Error starting work session")
		return
	}
	apihttp.WriteData(w, active)
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Engine.End(r.Context(), caller(r))
	if err != nil {
		apihttp.WriteError(w, r, err, "Error recording work session")
		return
	}

	msg := "Work session recorded"
	if result.Discarded {
		msg = "No significant activity to record"
	}

	apihttp.WriteJSON(w, http.StatusOK, apihttp.Envelope{Success: true, Message: msg, Data: result})
}

func (s *Server) activeSession(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.svc.Engine.Active(caller(r).ID)
	if !ok {
		apihttp.WriteData(w, activeSessionResponse{})
		return
	}
	apihttp.WriteData(w, activeSessionResponse{Active: true, Session: snap})
}
