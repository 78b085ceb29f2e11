package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/himanishpuri/fpengine/pkg/logger"
)

// setupRoutes registers all HTTP routes and middleware, the same
// net/http.ServeMux shape as the teacher's cmd/server/routes.go,
// generalized from song/{id uint32} to track/{id string} endpoints.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/health/metrics", s.handleMetrics)

	mux.HandleFunc("/api/tracks", s.handleTracks)
	mux.HandleFunc("/api/tracks/", s.handleTrack)
	mux.HandleFunc("/api/tracks/youtube", s.handleAddTrackYouTube)

	mux.HandleFunc("/api/match", s.handleMatch)
	mux.HandleFunc("/api/match/hashes", s.handleMatchHashesRoute)

	return loggingMiddleware(corsMiddleware(s.config.AllowedOrigins)(mux))
}

// corsMiddleware adds CORS headers to responses, unchanged from the
// teacher's implementation.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				allowed = true
			} else {
				for _, allowedOrigin := range allowedOrigins {
					if allowedOrigin == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Max-Age", "3600")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs every HTTP request/response pair, kept enabled
// unlike the teacher's commented-out call site.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		log := logger.GetLogger()
		log.Infof("%s %s from %s", r.Method, r.URL.Path, getClientIP(r))

		next.ServeHTTP(wrapped, r)

		log.Infof("%s %s -> %d", r.Method, r.URL.Path, wrapped.statusCode)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	handler := s.setupRoutes()

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.log.Infof("fpengine server starting on %s", addr)
	s.log.Infof("  db: %s  sample_rate: %dHz  cors: %v", s.config.DBPath, s.config.SampleRate, s.config.AllowedOrigins)
	s.log.Infof("endpoints:")
	s.log.Infof("  GET    /health")
	s.log.Infof("  GET    /api/health/metrics")
	s.log.Infof("  GET    /api/tracks")
	s.log.Infof("  POST   /api/tracks")
	s.log.Infof("  POST   /api/tracks/youtube")
	s.log.Infof("  GET    /api/tracks/{id}")
	s.log.Infof("  DELETE /api/tracks/{id}")
	s.log.Infof("  POST   /api/match")
	s.log.Infof("  POST   /api/match/hashes")

	return http.ListenAndServe(addr, handler)
}
