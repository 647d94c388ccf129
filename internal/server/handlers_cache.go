package server

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/oneofjob/internal/cache"
)

type cacheStatusResponse struct {
	Success     bool        `json:"success"`
	Cache       cache.Info  `json:"cache"`
	Stats       cache.Stats `json:"stats"`
	Environment string      `json:"environment"`
	Timestamp   time.Time   `json:"timestamp"`
}

type invalidateResponse struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	Before      cache.Info `json:"before"`
	After       cache.Info `json:"after"`
	RequestedBy string     `json:"requestedBy"`
	Timestamp   time.Time  `json:"timestamp"`
}

// handleCacheStatus reports what is cached and when it next goes stale.
func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	if s.authorizeAdmin(r) == callerNone {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.jsonResponse(w, http.StatusOK, cacheStatusResponse{
		Success:     true,
		Cache:       s.cache.Info(),
		Stats:       s.cache.Stats(),
		Environment: s.cfg.Environment,
		Timestamp:   s.now().UTC(),
	})
}

// handleInvalidate drops every cache entry. The crawler calls it after each run.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	who := s.authorizeInvalidate(r)
	if who == callerNone {
		s.log(r).Warn("rejected cache invalidation", "remote", r.RemoteAddr)
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if ok, retry := s.invalidates.Allow(string(who)); !ok {
		secs := int(math.Ceil(retry.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		s.errorResponse(w, http.StatusTooManyRequests, "cache was invalidated recently")
		return
	}

	before := s.cache.Info()
	s.cache.Invalidate()
	after := s.cache.Info()

	s.log(r).Info("cache invalidated",
		"requested_by", who,
		"user_agent", r.UserAgent(),
		"entries_before", before.TotalCacheSize,
	)
	s.jsonResponse(w, http.StatusOK, invalidateResponse{
		Success:     true,
		Message:     "cache invalidated",
		Before:      before,
		After:       after,
		RequestedBy: string(who),
		Timestamp:   s.now().UTC(),
	})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	s.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
}
