package api

import (
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nlpipe/nlpipe/internal/auth"
)

// withAuth rejects requests lacking a valid bearer token, unless the server
// was configured without authentication.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.UseAuth {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "Login Failed: No authentication supplied\n", http.StatusForbidden)
			return
		}
		token, ok := strings.CutPrefix(header, "Token ")
		if !ok {
			http.Error(w, "Login Failed: Incorrectly formatted authorization header\n", http.StatusForbidden)
			return
		}
		if err := auth.Verify(token); err != nil {
			http.Error(w, "Login Failed: invalid token\n", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// statusRecorder captures the status code a handler wrote, since
// http.ResponseWriter doesn't expose it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging records one logrus entry per request: method, path, status,
// and duration.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request")
	})
}
