package server

import (
	"net/http"

	"github.com/me/cmdbot/pkg/model"
)

func (s *Server) handleGetRobot(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), s.robot.Status())
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.ModeRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	mode, ok := model.ParseMode(req.Mode)
	if !ok {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("unknown mode",
			model.FieldError{Field: "mode", Message: "must be one of disabled, autonomous, teleop, test"}))
		return
	}
	if err := s.robot.RequestMode(mode); err != nil {
		respondErr(w, reqID, err)
		return
	}
	s.logger.Info("mode requested", "mode", mode, "request_id", reqID)
	respondAccepted(w, reqID, req)
}

type autosResponse struct {
	Selected string             `json:"selected"`
	Options  []model.AutoOption `json:"options"`
}

func (s *Server) handleListAutos(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), autosResponse{
		Selected: s.robot.Status().SelectedAuto,
		Options:  s.robot.Autos(),
	})
}

func (s *Server) handleSelectAuto(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.AutoSelection
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	if req.Name == "" {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("name is required",
			model.FieldError{Field: "name", Message: "required"}))
		return
	}
	if err := s.robot.SelectAuto(req.Name); err != nil {
		respondErr(w, reqID, err)
		return
	}
	respondOK(w, reqID, req)
}
