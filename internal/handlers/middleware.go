package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"attune/internal/models"
	"attune/internal/security"
)

// TokenResolver resolves a bearer token to a user ID. Implemented by
// *service.OTPService; tests substitute a fake.
type TokenResolver interface {
	ResolveToken(token string) (string, error)
}

// Middleware holds dependencies for request middleware, most importantly the
// authorization gate that turns a request into a row-level scope.
type Middleware struct {
	resolver          TokenResolver
	allowPublicAccess bool
	limiter           *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(resolver TokenResolver, allowPublicAccess bool, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		resolver:          resolver,
		allowPublicAccess: allowPublicAccess,
		limiter:           limiter,
	}
}

// ResolveScope is the authorization gate. It resolves the request to either
// an authenticated identity or the public scope and reports whether the
// caller may proceed; on failure the 401 response has already been written.
//
// A presented-but-invalid token is always rejected, even when public access
// is enabled: a bad credential is never silently downgraded to anonymous.
func (m *Middleware) ResolveScope(w http.ResponseWriter, r *http.Request) (models.Scope, bool) {
	authHeader := r.Header.Get("Authorization")

	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := m.resolver.ResolveToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid or expired token", "", nil)
			return models.Scope{}, false
		}
		return models.Scope{UserID: userID}, true
	}

	if m.allowPublicAccess {
		return models.Scope{Public: true}, true
	}

	respondError(w, http.StatusUnauthorized, "Missing Authorization Bearer token", "", nil)
	return models.Scope{}, false
}

// RateLimit throttles requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			respondError(w, http.StatusTooManyRequests, "Too many requests", "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
