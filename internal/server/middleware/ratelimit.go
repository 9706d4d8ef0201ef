package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	bucketEvictEvery = 10 * time.Minute
	bucketMaxIdle    = 30 * time.Minute
)

// limiterPool hands out one token bucket per caller key. Buckets idle for
// longer than bucketMaxIdle are evicted so the map cannot grow without bound.
type limiterPool struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// newLimiterPool creates a pool and starts its eviction loop. ctx bounds the
// loop's lifetime.
func newLimiterPool(ctx context.Context, requestsPerSecond float64, burst int) *limiterPool {
	p := &limiterPool{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(requestsPerSecond),
		burst:   burst,
	}

	go func() {
		ticker := time.NewTicker(bucketEvictEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.evictIdle(time.Now().Add(-bucketMaxIdle))
			case <-ctx.Done():
				return
			}
		}
	}()

	return p
}

func (p *limiterPool) evictIdle(cutoff time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, b := range p.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(p.buckets, key)
		}
	}
}

func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	b, ok := p.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(p.rps, p.burst)}
		p.buckets[key] = b
	}
	b.lastSeen = time.Now()
	p.mu.Unlock()

	return b.lim.Allow()
}

func (p *limiterPool) middleware(keyFor func(r *http.Request) (string, bool)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := keyFor(r)
			if ok && !p.allow(key) {
				http.Error(w, `{"title":"Too Many Requests","status":429,"detail":"request rate exceeded"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP throttles unauthenticated endpoints per client address.
// Chained after chi's RealIP so r.RemoteAddr holds the original caller.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	pool := newLimiterPool(ctx, requestsPerSecond, burst)
	return pool.middleware(func(r *http.Request) (string, bool) {
		return r.RemoteAddr, true
	})
}

// RateLimitByTenant throttles the authenticated API surface per tenant.
// Requests without a tenant in context pass through; RequireTenant runs
// earlier in the chain and already rejects those.
func RateLimitByTenant(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	pool := newLimiterPool(ctx, requestsPerSecond, burst)
	return pool.middleware(func(r *http.Request) (string, bool) {
		tenantID, ok := TenantIDFromContext(r.Context())
		if !ok {
			return "", false
		}
		return tenantID.String(), true
	})
}
