package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Sender serves the file named by a percent-encoded request path.
// *sendfile.Sender implements it.
type Sender interface {
	Send(w http.ResponseWriter, r *http.Request, path string)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

type HandlerConfig struct {
	// HealthPath serves a JSON health check. Empty disables it.
	HealthPath string
	CORS       CORSConfig
}

// Handler exposes a Sender over GET and HEAD.
type Handler struct {
	config HandlerConfig
	sender Sender
}

// NewHandler creates a new Handler with the given configuration and sender.
func NewHandler(config *HandlerConfig, sender Sender) *Handler {
	return &Handler{
		config: *config,
		sender: sender,
	}
}

// Router returns an http.Handler that logs every request and sends files
// for GET and HEAD. Other methods get a 405.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	if h.config.HealthPath != "" {
		r.Get(h.config.HealthPath, h.handleHealth)
	}

	r.Get("/*", h.handleSend)
	r.Head("/*", h.handleSend)
	r.MethodNotAllowed(h.handleMethodNotAllowed)

	return r
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	h.sender.Send(w, r, r.URL.EscapedPath())
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", "GET, HEAD")
	WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
}
