package receipt

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Server handles HTTP requests for the bookkeeping API.
type Server struct {
	service *Service
	log     zerolog.Logger
	mux     *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, log zerolog.Logger) *Server {
	return NewServerWithMux(service, log, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, log zerolog.Logger, mux *http.ServeMux) *Server {
	s := &Server{
		service: service,
		log:     log,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/upload_receipt", s.handleUploadReceipt)
	s.mux.HandleFunc("GET /api/get_stats", s.handleGetStats)
	s.mux.HandleFunc("GET /api/get_yearly", s.handleGetYearly)

	// Most specific paths first to avoid pattern conflicts.
	s.mux.HandleFunc("POST /api/receipts/manual", s.handleManualAdd)
	s.mux.HandleFunc("PUT /api/receipts/{id}", s.handleUpdateReceipt)
	s.mux.HandleFunc("DELETE /api/receipts/{id}", s.handleDeleteReceipt)
	s.mux.HandleFunc("GET /api/receipts", s.handleListReceipts)

	s.mux.HandleFunc("GET /api/net_worth", s.handleGetNetWorth)
	s.mux.HandleFunc("PUT /api/net_worth", s.handleSetNetWorth)

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
}

// handler wraps the mux with the middleware chain.
func (s *Server) handler() http.Handler {
	return s.requestID(s.logging(s.recovery(corsMiddleware(s.mux))))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	s.log.Info().Str("address", addr).Msg("starting server")
	return http.ListenAndServe(addr, s.handler())
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler().ServeHTTP(w, r)
}

// corsMiddleware adds CORS headers and answers preflight requests; the
// web client is served from a different origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestID tags every request so log lines from one upload can be
// correlated.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		log := s.log.With().Str("request_id", requestID).Logger()
		next.ServeHTTP(w, r.WithContext(log.WithContext(r.Context())))
	})
}

// logging records one structured line per request.
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("http request")
	})
}

// recovery turns panics into opaque 500 responses.
func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zerolog.Ctx(r.Context()).Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("panic recovered")
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
