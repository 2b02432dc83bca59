package http

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/critical-events-service/internal/domain"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestID(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "Request body too large"
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Error()
	}

	var derr *domain.Error
	if errors.As(err, &derr) {
		switch {
		case errors.Is(derr.Kind, domain.ErrNotFound):
			return http.StatusNotFound, derr.Message
		case errors.Is(derr.Kind, domain.ErrValidation),
			errors.Is(derr.Kind, domain.ErrUnsupportedFormat),
			errors.Is(derr.Kind, domain.ErrEmptyFile):
			return http.StatusBadRequest, derr.Message
		default:
			return http.StatusInternalServerError, derr.Message
		}
	}

	return http.StatusInternalServerError, "Internal server error"
}
