package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/oneofjob/internal/model"
)

// Limiter enforces a minimum delay between calls sharing the same key.
// A non-positive delay disables it.
type Limiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time
	minDelay time.Duration
	now      func() time.Time
}

// NewLimiter creates a limiter that enforces minDelay between consecutive
// calls for the same key.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
		now:      time.Now,
	}
}

// MinDelay returns the configured delay.
func (r *Limiter) MinDelay() time.Duration {
	return r.minDelay
}

// Allow records a call for key and returns true if minDelay has passed since
// the last allowed one. Otherwise it returns false and how long to wait.
func (r *Limiter) Allow(key string) (bool, time.Duration) {
	if r.minDelay <= 0 {
		return true, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if last, ok := r.lastCall[key]; ok {
		if elapsed := now.Sub(last); elapsed < r.minDelay {
			return false, r.minDelay - elapsed
		}
	}
	r.lastCall[key] = now
	return true, 0
}

// Wait blocks until enough time has passed since the last call for key.
// Returns an error if the context is cancelled while waiting.
func (r *Limiter) Wait(ctx context.Context, key string) error {
	if r.minDelay <= 0 {
		return nil
	}
	r.mu.Lock()
	now := r.now()
	last, ok := r.lastCall[key]
	if !ok || now.Sub(last) >= r.minDelay {
		r.lastCall[key] = now
		r.mu.Unlock()
		return nil
	}

	// Reserve the next slot so concurrent waiters queue behind it.
	next := last.Add(r.minDelay)
	r.lastCall[key] = next
	r.mu.Unlock()

	timer := time.NewTimer(next.Sub(now))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Upstream is the part of the API client the cache fetches through.
type Upstream interface {
	model.JobFetcher
	model.CompanyFetcher
}

// RateLimitedUpstream is a decorator that spaces out upstream list fetches
// before delegating to the wrapped client.
type RateLimitedUpstream struct {
	inner   Upstream
	limiter *Limiter
}

// NewRateLimitedUpstream wraps inner with limiter. Jobs and companies are
// limited independently.
func NewRateLimitedUpstream(inner Upstream, limiter *Limiter) *RateLimitedUpstream {
	return &RateLimitedUpstream{inner: inner, limiter: limiter}
}

// FetchJobs waits for the limiter, then delegates.
func (u *RateLimitedUpstream) FetchJobs(ctx context.Context) ([]model.Job, error) {
	if err := u.limiter.Wait(ctx, "jobs"); err != nil {
		return nil, err
	}
	return u.inner.FetchJobs(ctx)
}

// FetchCompanies waits for the limiter, then delegates.
func (u *RateLimitedUpstream) FetchCompanies(ctx context.Context) ([]string, error) {
	if err := u.limiter.Wait(ctx, "companies"); err != nil {
		return nil, err
	}
	return u.inner.FetchCompanies(ctx)
}
