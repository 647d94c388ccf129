package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amishk599/oneofjob/internal/model"
)

// HTTPStatus returns the response status for an error from the cache or the
// upstream client.
func HTTPStatus(err error) int {
	var upstream *model.HTTPError
	switch {
	case errors.Is(err, model.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads this.
		return 499
	default:
		return http.StatusBadGateway
	}
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// upstreamError logs err and answers with its mapped status.
func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, what string, err error) {
	status := HTTPStatus(err)
	if status == http.StatusNotFound {
		s.errorResponse(w, status, what+" not found")
		return
	}
	s.log(r).Error("upstream request failed", "what", what, "status", status, "error", err)
	s.errorResponse(w, status, "failed to load "+what)
}
