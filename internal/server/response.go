package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"cvforge/internal/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Fields  any    `json:"fields,omitempty"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if stderrors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}

	appErr, ok := errors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation:
		switch appErr.Code {
		case errors.ErrCodeNotFound:
			return http.StatusNotFound
		case errors.ErrCodeConflict:
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case errors.ErrorTypeAuth:
		return http.StatusUnauthorized
	case errors.ErrorTypeConfig:
		return http.StatusServiceUnavailable
	case errors.ErrorTypeRemote, errors.ErrorTypeParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it as a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "endpoint", r.URL.Path, "status", status)
	}

	var maxBytes *http.MaxBytesError
	if stderrors.As(err, &maxBytes) {
		writeErrorResponse(w, status, "REQUEST_TOO_LARGE", "request body is too large")
		return
	}

	appErr, ok := errors.As(err)
	if !ok {
		writeErrorResponse(w, status, "INTERNAL_ERROR", errors.UserMessage(err))
		return
	}

	resp := ErrorResponse{Error: appErr.Code, Message: appErr.Message}
	switch appErr.Type {
	case errors.ErrorTypeParse, errors.ErrorTypeInternal:
		resp.Message = errors.UserMessage(err)
	}
	if fields, ok := appErr.Context["fields"]; ok {
		resp.Fields = fields
	}
	writeJSON(w, status, resp)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already sent; an encode failure can only be a broken connection.
	_ = json.NewEncoder(w).Encode(v)
}

// parseJSONRequest decodes a single JSON object, rejecting unknown fields.
func parseJSONRequest(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if stderrors.As(err, &maxBytes) {
			return err
		}
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid request body: "+err.Error(), err)
	}
	return nil
}
