package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/travel-itineraries/backend/internal/domain"
)

// Error codes carried in the "code" field of an error body.
const (
	codeBadRequest         = "bad_request"
	codeNotFound           = "not_found"
	codeValidation         = "validation_error"
	codeUnauthenticated    = "unauthenticated"
	codeInvalidCredentials = "invalid_credentials"
	codeTooLarge           = "request_too_large"
	codeInternal           = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure. Fields is set for validation errors
// and maps a field name to its message.
type ErrorDetail struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// writeJSON encodes body as the response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes an ErrorResponse tagged with the request id.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string, fields map[string]string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   msg,
		Fields:    fields,
		RequestID: chimiddleware.GetReqID(r.Context()),
	}})
}

// writeServiceError maps a service error onto a response. notFound is the
// message used for domain.ErrNotFound, because the handler is the layer that
// knows what was being looked up. Anything unrecognised is logged and
// reported as a bare 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var fe domain.FieldErrors
	switch {
	case errors.As(err, &fe):
		writeError(w, r, http.StatusUnprocessableEntity, codeValidation, "invalid input", fe)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, r, http.StatusUnprocessableEntity, codeValidation, err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, notFound, nil)
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, codeUnauthenticated, "authentication required", nil)
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
		writeError(w, r, http.StatusInternalServerError, codeInternal, "internal server error", nil)
	}
}
