package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/emrecanguldogan/HealthChain/pkg/monitoring"
	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

type contextKey string

const sessionContextKey contextKey = "session_claims"

// SessionFromContext returns the authenticated session claims, if any
func SessionFromContext(ctx context.Context) (*types.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionContextKey).(*types.SessionClaims)
	return claims, ok
}

// corsMiddleware handles CORS headers
func (s *Service) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware adds security headers
func (s *Service) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs requests and records HTTP metrics
func (s *Service) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		monitoring.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(recorder.statusCode), duration.Seconds())
		s.logger.HTTPRequest(r.Context(), r.Method, r.URL.Path, r.UserAgent(), r.RemoteAddr,
			recorder.statusCode, duration.Milliseconds(), nil)
	})
}

// authMiddleware validates session tokens and stores the wallet claims
// in the request context
func (s *Service) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Health and metrics stay unauthenticated
		if r.URL.Path == s.config.Monitoring.HealthPath || r.URL.Path == s.config.Monitoring.MetricsPath {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "Missing authorization header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "Malformed authorization header")
			return
		}

		claims, err := s.validator.ValidateJWT(tokenString)
		if err != nil {
			s.logger.WithError(err).Warn("Session token validation failed")
			s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "Invalid session token")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// responseRecorder captures the response status code for logging
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
