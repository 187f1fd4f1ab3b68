package web

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"eventcal/internal/config"
	"eventcal/internal/duration"
	appLog "eventcal/internal/log"
)

// Server exposes the date engine over HTTP. Configuration can be swapped
// at runtime with SetConfig; handlers read it under a lock.
type Server struct {
	mu         sync.RWMutex
	cfg        *config.Config
	loc        *time.Location
	translator duration.Translator

	handler http.Handler
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config) (*Server, error) {
	s := &Server{}
	if err := s.SetConfig(cfg); err != nil {
		return nil, err
	}
	s.handler = s.routes()
	return s, nil
}

// SetConfig installs cfg, rebuilding the timezone and label translator.
func (s *Server) SetConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("web: config is nil")
	}
	tr, err := cfg.Translator()
	if err != nil {
		return fmt.Errorf("web: %w", err)
	}
	loc := cfg.Location()

	s.mu.Lock()
	s.cfg = cfg
	s.loc = loc
	s.translator = tr
	s.mu.Unlock()
	return nil
}

// snapshot returns the current config, location and translator together.
func (s *Server) snapshot() (*config.Config, *time.Location, duration.Translator) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.loc, s.translator
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// requestLogger writes one debug line per request through appLog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		appLog.Debug(r.URL.RequestURI(),
			"addr", r.RemoteAddr,
			"protocol", r.Proto,
			"method", r.Method,
		)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(requestLogger, middleware.Recoverer, middleware.StripSlashes)
	r.NotFound(s.notFoundResponse)
	r.MethodNotAllowed(s.methodNotAllowedResponse)

	r.Get("/health", s.handleHealth)

	r.With(s.basicAuth).Route("/api", func(r chi.Router) {
		r.Post("/rule", s.handleBuildRule)
		r.Post("/rule/parse", s.handleParseRule)
		r.Post("/occurrences", s.handleOccurrences)
		r.Get("/days", s.handleDays)
		r.Get("/end-date", s.handleEndDate)
		r.Post("/normalize", s.handleNormalize)
		r.Get("/durations/{unit}", s.handleDurations)
		r.Post("/export.ics", s.handleExportICS)
		r.Post("/export/google", s.handleExportGoogle)
	})

	return r
}

// basicAuth enforces HTTP Basic Auth when the current config enables it.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg, _, _ := s.snapshot()
		if cfg.BasicAuth == nil {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, cfg.BasicAuth.Username) || !secureCompare(p, cfg.BasicAuth.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="eventcal", charset="UTF-8"`)
			s.errorResponse(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves s on listen until ctx is canceled, then shuts down
// gracefully.
func StartServer(ctx context.Context, s *Server, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
