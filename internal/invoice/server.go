package invoice

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
)

// SettingsStore is what the HTTP surface needs from persisted settings.
type SettingsStore interface {
	CredentialSource
	SetAPIKey(key string) error
	Theme() (string, error)
	SetTheme(theme string) error
}

// Server handles HTTP requests for the invoice session.
type Server struct {
	service   *Service
	settings  SettingsStore
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, settings SettingsStore, basicAuth BasicAuth) *Server {
	return NewServerWithMux(service, settings, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, settings SettingsStore, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		settings:  settings,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// corsMiddleware adds CORS headers and answers preflight requests
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="AI Invoice App"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	// Invoice session (most specific paths first)
	s.mux.HandleFunc("POST /api/invoice/line-items/{index}/suggest", s.requireAuth(s.handleSuggestCategory))
	s.mux.HandleFunc("PUT /api/invoice/line-items/{index}/category", s.requireAuth(s.handleSetCategory))
	s.mux.HandleFunc("POST /api/invoice/suggest-all", s.requireAuth(s.handleSuggestAll))
	s.mux.HandleFunc("POST /api/invoice/email", s.requireAuth(s.handleDraftEmail))
	s.mux.HandleFunc("GET /api/invoice/csv", s.requireAuth(s.handleExportCSV))
	s.mux.HandleFunc("GET /api/invoice", s.requireAuth(s.handleSession))
	s.mux.HandleFunc("POST /api/invoice", s.requireAuth(s.handleTranscribe))
	s.mux.HandleFunc("DELETE /api/invoice", s.requireAuth(s.handleReset))

	// Settings
	s.mux.HandleFunc("GET /api/settings", s.requireAuth(s.handleGetSettings))
	s.mux.HandleFunc("PUT /api/settings", s.requireAuth(s.handleUpdateSettings))

	// Static HTML interface (register last as it's the catch-all)
	s.mux.HandleFunc("GET /index.html", s.requireAuth(s.handleIndex))
	s.mux.HandleFunc("GET /", s.requireAuth(s.handleIndex))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	// Wrap the mux with CORS middleware to handle all requests including OPTIONS
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
