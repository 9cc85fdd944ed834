package http

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterStore hands out one token bucket per client IP. Buckets idle for longer than ttl
// are dropped by a sweep that runs at most once per ttl.
type LimiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	r         rate.Limit
	b         int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	lim     *rate.Limiter
	lastHit time.Time
}

func NewLimiterStore(r rate.Limit, burst int, ttl time.Duration) *LimiterStore {
	return &LimiterStore{
		limiters: make(map[string]*clientLimiter),
		r:        r,
		b:        burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// PerMinute builds a store allowing n requests per minute with a burst of n.
func PerMinute(n int) *LimiterStore {
	if n <= 0 {
		return nil
	}
	return NewLimiterStore(rate.Limit(float64(n)/60), n, 10*time.Minute)
}

func (s *LimiterStore) Allow(ip string) bool {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= s.ttl {
		s.sweep(now)
	}

	cl, ok := s.limiters[ip]
	if !ok {
		cl = &clientLimiter{lim: rate.NewLimiter(s.r, s.b)}
		s.limiters[ip] = cl
	}

	cl.lastHit = now
	return cl.lim.AllowN(now, 1)
}

func (s *LimiterStore) sweep(now time.Time) {
	for k, v := range s.limiters {
		if now.Sub(v.lastHit) > s.ttl {
			delete(s.limiters, k)
		}
	}
	s.lastSweep = now
}
