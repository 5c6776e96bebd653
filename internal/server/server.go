package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/haguru/llmvault/internal/interfaces"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
	IdleTimeout  = 30 * time.Second
)

type Server struct {
	Port   string
	Host   string
	server *http.Server
	engine *gin.Engine
	Logger interfaces.Logger
}

// NewServer creates a new Server instance with the specified host and port.
// Access logging wraps panic recovery so recovered requests are still logged.
func NewServer(host, port, serviceName string, logger interfaces.Logger) interfaces.Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		RequestID(),
		AccessLog(logger),
		gin.Recovery(),
		cors.New(CORSConfig()),
	)

	server := &http.Server{
		Addr:         net.JoinHostPort(host, port),
		Handler:      otelhttp.NewHandler(engine, serviceName),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	return &Server{
		Host:   host,
		Port:   port,
		server: server,
		engine: engine,
		Logger: logger,
	}
}

// CORSConfig permits any origin for the methods the API serves.
func CORSConfig() cors.Config {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	config.AllowHeaders = append(config.AllowHeaders, RequestIDHeader)
	config.ExposeHeaders = []string{RequestIDHeader}
	return config
}

// AddRoute adds a new route to the server.
// It returns an error if the method or route is empty.
func (s *Server) AddRoute(method, route string, handlers ...gin.HandlerFunc) error {
	if method == "" || route == "" {
		return fmt.Errorf("method and route are required")
	}
	if len(handlers) == 0 {
		return fmt.Errorf("no handler given for %s %s", method, route)
	}
	s.engine.Handle(method, route, handlers...)
	s.Logger.Info("Route added", "method", method, "route", route)
	return nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe starts the HTTP server and blocks until it stops. A server
// stopped through Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.Logger.Info("Starting server", "host", s.Host, "port", s.Port, "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.Logger.Error("Failed to start server", "error", err)
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("Shutting down server")
	return s.server.Shutdown(ctx)
}
