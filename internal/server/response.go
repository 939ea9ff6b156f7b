package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/me/cmdbot/pkg/model"
)

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil)
}

// respondAccepted writes a 202 for requests applied on the next tick.
func respondAccepted(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusAccepted, reqID, data, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	respondJSON(w, status, reqID, nil, apiErr)
}

// respondErr maps err to a status code: APIError codes keep their meaning,
// anything else is a 500.
func respondErr(w http.ResponseWriter, reqID string, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		respondError(w, reqID, http.StatusInternalServerError,
			&model.APIError{Code: model.ErrInternal, Message: err.Error()})
		return
	}
	status := http.StatusInternalServerError
	switch apiErr.Code {
	case model.ErrValidation:
		status = http.StatusBadRequest
	case model.ErrNotFound:
		status = http.StatusNotFound
	case model.ErrConflict:
		status = http.StatusConflict
	case model.ErrUnauthorized:
		status = http.StatusUnauthorized
	}
	respondError(w, reqID, status, apiErr)
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data any, apiErr *model.APIError) {
	resp := model.Response{
		RequestID: reqID,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Error:     apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// decodeJSON reads a request body into v, reporting a validation error on
// malformed input.
func decodeJSON(r *http.Request, v any) *model.APIError {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return model.NewValidationError("invalid request body", model.FieldError{Message: err.Error()})
	}
	return nil
}
