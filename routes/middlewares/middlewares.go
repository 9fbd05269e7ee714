package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
	"golang.org/x/time/rate"

	"github.com/mbolis/opinio/httpx"
	"github.com/mbolis/opinio/log"
)

type ctxKey int

const callerKey ctxKey = iota

// Authenticated requires a valid bearer token signed with secret, and puts
// the id of the authenticated user in the request context.
func Authenticated(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), caller).Handler(next)
	}
}

func caller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)
		userID := claims[httpx.ClaimUserID]
		if userID == "" {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.claims")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerID is the authenticated user of r, or "" for anonymous requests.
func CallerID(r *http.Request) string {
	id, _ := r.Context().Value(callerKey).(string)
	return id
}

// RateLimiter hands out one token bucket per client IP. Buckets idle for
// longer than ttl are dropped.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
	swept    time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perMinute, burst int, ttl time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: map[string]*visitor{},
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Allow reports whether ip may go ahead now.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.swept) > rl.ttl {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.ttl {
				delete(rl.visitors, key)
			}
		}
		rl.swept = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit rejects requests with 429 once the client IP runs out of tokens.
// Proxy headers name the client only when trustProxy is set.
func RateLimit(rl *RateLimiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustProxy)
			if !rl.Allow(ip) {
				httpx.LogStatusMsg(w, r, http.StatusTooManyRequests, log.InfoLevel, "rate_limit", "too many submissions from %s, try again later", ip)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP is the remote address of r without its port. Behind a trusted
// reverse proxy, the last X-Forwarded-For hop or else X-Real-IP wins: the
// proxy appends the address it saw, anything before it is client supplied.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
				return last
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
