package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// withRequestID tags each request with an ID, reusing a well-formed one from
// the caller.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the ID assigned by the request ID middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// log returns the server logger annotated with the request ID.
func (s *Server) log(r *http.Request) *slog.Logger {
	if id := RequestID(r.Context()); id != "" {
		return s.logger.With("request_id", id)
	}
	return s.logger
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log(r).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

// caller identifies who authenticated an admin request.
type caller string

const (
	callerNone    caller = ""
	callerAdmin   caller = "admin"
	callerCrawler caller = "crawler"
	callerOpen    caller = "unauthenticated" // auth not enforced
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// secretEqual compares in constant time. An unset secret never matches.
func secretEqual(got, want string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// authorizeAdmin accepts the admin bearer key.
func (s *Server) authorizeAdmin(r *http.Request) caller {
	if !s.cfg.Enforce {
		return callerOpen
	}
	if secretEqual(bearerToken(r), s.cfg.AdminAPIKey) {
		return callerAdmin
	}
	return callerNone
}

// authorizeInvalidate accepts the crawler's webhook secret or the admin key.
func (s *Server) authorizeInvalidate(r *http.Request) caller {
	if !s.cfg.Enforce {
		return callerOpen
	}
	if secretEqual(r.Header.Get("X-Webhook-Secret"), s.cfg.CrawlerWebhookSecret) {
		return callerCrawler
	}
	return s.authorizeAdmin(r)
}
