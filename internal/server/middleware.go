package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"cvforge/internal/types"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type sessionKey struct{}

// sessionFrom returns the session attached by sessionMiddleware, or nil.
func sessionFrom(ctx context.Context) *types.Session {
	sess, _ := ctx.Value(sessionKey{}).(*types.Session)
	return sess
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// requestLogging logs each request with its status and duration.
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.Logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP(r))
	})
}

// sessionMiddleware attaches the session of a bearer token. Requests without
// a token pass through anonymous; a bad token is rejected.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || s.deps.Auth == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := s.deps.Auth.ValidateToken(token)
		if err != nil {
			s.Logger.Info("Rejected session token",
				"endpoint", r.URL.Path,
				"client_ip", clientIP(r))
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestSize > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		}
		next.ServeHTTP(w, r)
	})
}
