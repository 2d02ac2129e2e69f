package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"event-wallboard/config"
	"event-wallboard/handlers"
	"event-wallboard/services"

	"github.com/gorilla/mux"
)

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	services   *services.ServiceContainer

	// Handlers
	healthHandler   *handlers.HealthHandler
	eventHandler    *handlers.EventHandler
	fallbackHandler *handlers.FallbackHandler
	metricsHandler  *handlers.MetricsHandler
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, container *services.ServiceContainer) *Server {
	logger := container.Logger.With(services.String("component", "http"))

	server := &Server{
		config:          cfg,
		router:          mux.NewRouter().UseEncodedPath().SkipClean(true),
		services:        container,
		healthHandler:   handlers.NewHealthHandler(logger),
		eventHandler:    handlers.NewEventHandler(container.Events, logger),
		fallbackHandler: handlers.NewFallbackHandler(logger),
	}
	if container.MetricsService != nil {
		server.metricsHandler = handlers.NewMetricsHandler(container.MetricsService, logger)
	}

	server.setupRoutes()
	server.setupMiddleware()

	server.httpServer = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server
}

// setupRoutes configures all HTTP routes. Each route is named after its
// plain path, which is also the label request metrics use.
func (s *Server) setupRoutes() {
	s.handle("/health", s.healthHandler.Health, http.MethodGet, http.MethodHead)

	s.handle("/webhook", s.eventHandler.Webhook, http.MethodPost)
	s.handle("/wallboard", s.eventHandler.Wallboard, http.MethodGet, http.MethodHead)
	s.handle("/metrics/{source}", s.eventHandler.SourceMetrics, http.MethodGet, http.MethodHead)
	s.handle("/events/{eventId}", s.eventHandler.DeleteEvent, http.MethodDelete)

	if s.metricsHandler != nil {
		s.handle(s.config.Performance.MetricsEndpoint, s.metricsHandler.Serve, http.MethodGet, http.MethodHead)
	}

	s.router.NotFoundHandler = http.HandlerFunc(s.fallbackHandler.NotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.fallbackHandler.MethodNotAllowed)
}

func (s *Server) handle(path string, handler http.HandlerFunc, methods ...string) {
	s.router.HandleFunc(routeTemplate(path), handler).Methods(methods...).Name(path)
}

// routeTemplate turns a path such as /metrics/{source} into a mux template
// whose literal segments match in any case and which accepts one trailing
// slash. Variables keep the default one-segment pattern. The router matches
// on the escaped path, so an encoded slash stays inside its segment.
func routeTemplate(path string) string {
	var b strings.Builder
	for i, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		b.WriteByte('/')
		if strings.HasPrefix(segment, "{") {
			b.WriteString(segment)
			continue
		}
		fmt.Fprintf(&b, "{s%d:(?i)%s}", i, regexp.QuoteMeta(segment))
	}
	b.WriteString("{trailingSlash:/?}")
	return b.String()
}

// setupMiddleware configures middleware. Router middleware only runs for
// matched routes, so everything that must also see preflights and
// unmatched requests wraps the router from outside.
func (s *Server) setupMiddleware() {
	if s.services.MetricsService != nil {
		s.router.Use(s.metricsMiddleware)
		s.router.NotFoundHandler = s.metricsMiddleware(s.router.NotFoundHandler)
		s.router.MethodNotAllowedHandler = s.metricsMiddleware(s.router.MethodNotAllowedHandler)
	}
	s.router.Use(s.jsonBodyMiddleware)

	var handler http.Handler = s.router
	handler = s.recoveryMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.requestIDMiddleware(handler)
	handler = s.corsMiddleware(handler)
	s.handler = handler
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Events returns the event store the server owns
func (s *Server) Events() *services.EventStore {
	return s.services.Events
}

// ApplyConfig applies the settings that can change while running. Only the
// log level is live; everything else needs a restart.
func (s *Server) ApplyConfig(cfg *config.Config) {
	level := services.ParseLogLevel(cfg.Logging.Level)
	if level != s.services.Logger.Level() {
		// Logged before the switch so raising the level does not hide it.
		s.services.Logger.Info("Log level changed", services.String("level", string(level)))
		s.services.Logger.SetLevel(level)
	}
}

// Start listens on the configured port and serves until ctx is cancelled,
// then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	port := s.config.Server.Port
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = strconv.Itoa(addr.Port)
	}
	s.services.Logger.Info("Server listening on http://localhost:"+port, services.String("port", port))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.services.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
