package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/api/handlers"
	appMiddleware "github.com/jstepanek/textlens/internal/api/middlewares"
	"github.com/jstepanek/textlens/internal/config"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

type Handlers struct {
	Document *handlers.DocumentHandler
	Chat     *handlers.ChatHandler
	Session  *handlers.SessionHandler
	Provider *handlers.ProviderHandler
}

// NewRouter builds and wires all routes.
func NewRouter(cfg *config.Config, h Handlers, log *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)
	// backend calls are bounded by REQUEST_TIMEOUT; leave room to write the error
	r.Use(middleware.Timeout(cfg.RequestTimeout + 10*time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Get("/health", handlers.Health)

	// API routes
	r.Route("/api", func(api chi.Router) {
		api.Post("/upload", h.Document.UploadDocument)
		api.Post("/chat", h.Chat.Chat)
		api.Get("/providers", h.Provider.ListProviders)

		api.Route("/sessions", func(s chi.Router) {
			s.Post("/", h.Session.CreateSession)
			s.Get("/{id}", h.Session.GetSession)
			s.Put("/{id}/document", h.Session.LoadDocument)
			s.Post("/{id}/chat", h.Session.Chat)
			s.Post("/{id}/reset", h.Session.Reset)
			s.Delete("/{id}", h.Session.DeleteSession)
		})
	})

	// Serve static files from the web directory
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}

func NewServer(cfg *config.Config, handler http.Handler, log *zap.Logger) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
