package server

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// Routes lists "METHOD /path" for every registered route, sorted by path.
func (s *Server) Routes() []string {
	router, ok := s.Handler().(chi.Routes)
	if !ok {
		return nil
	}

	var routes []string
	_ = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, fmt.Sprintf("%-6s %s", method, strings.TrimSuffix(route, "/")))
		return nil
	})
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i][7:] < routes[j][7:]
	})
	return routes
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Fprintln(s.out, "Available endpoints:")
	for _, route := range s.Routes() {
		fmt.Fprintln(s.out, "  "+route)
	}
}

// displayAuthInfo shows which optional services are wired
func (s *Server) displayAuthInfo() {
	if s.deps.Auth != nil && s.deps.Backend != nil {
		fmt.Fprintln(s.out, "Sessions: ENABLED (profile and activity routes need 'Authorization: Bearer <token>')")
	} else {
		fmt.Fprintln(s.out, "Sessions: DISABLED (no backend configured, profile and activity routes answer 503)")
	}
	if s.deps.Analyzer == nil {
		fmt.Fprintln(s.out, "Analysis: DISABLED (no API key configured)")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Fprintf(s.out, "Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Fprintln(s.out, "Request size limit: DISABLED")
		fmt.Fprintln(s.out, "WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimiter != nil {
		fmt.Fprintf(s.out, "Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByUser {
			fmt.Fprintln(s.out, "  - Per session rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Fprintln(s.out, "  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Fprintln(s.out, "Rate limiting: DISABLED")
		fmt.Fprintln(s.out, "WARNING: No rate limiting configured!")
	}
}
