package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/cmdbot/pkg/model"
)

func (s *Server) handleListTelemetry(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, s.table.Snapshot(r.URL.Query().Get("prefix")))
}

func (s *Server) handleGetTelemetry(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	key := chi.URLParam(r, "*")
	e, ok := s.table.Get(key)
	if !ok {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("telemetry key", key))
		return
	}
	respondOK(w, reqID, e)
}
