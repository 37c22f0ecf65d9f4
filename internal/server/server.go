package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chat-gateway/internal/auth"
	"chat-gateway/internal/config"
	"chat-gateway/internal/router"
)

const (
	idleTimeout = 120 * time.Second
	// writeSlack lets a request that used its whole budget still flush its reply.
	writeSlack = 10 * time.Second
)

type Server struct {
	cfg     config.Config
	router  *router.Router
	guard   *auth.Guard
	app     *echo.Echo
	address string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, rt *router.Router) (*Server, error) {
	if rt == nil {
		return nil, errors.New("router must not be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", redactQuery(v.URI),
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; form-action 'none'",
	}))
	e.Use(corsHeaders(cfg.CORS))

	srv := &Server{
		cfg:     cfg,
		router:  rt,
		app:     e,
		address: fmt.Sprintf(":%d", cfg.Server.Port),
	}
	if cfg.Auth.Enabled {
		srv.guard = auth.New(cfg.Auth.RequiredRole, cfg.Auth.RoleClaims)
	}

	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the routed echo instance, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.printStartupBanner()
	slog.Info("starting server", "addr", s.address, "auth", s.cfg.Auth.Enabled)

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.RequestTimeout + writeSlack,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	if s.cfg.Metrics.Enabled {
		s.app.GET(s.cfg.Metrics.Path, echo.WrapHandler(promhttp.Handler()))
	}

	for _, path := range []string{"/api/chat", "/api/models"} {
		s.app.POST(path, s.handleChat, s.requireRole)
		s.app.OPTIONS(path, handlePreflight)
	}
	s.app.POST("/stream", s.handleStream, s.requireRole)
	s.app.OPTIONS("/stream", handlePreflight)
}

func (s *Server) printStartupBanner() {
	host := "127.0.0.1"
	port := s.cfg.Server.Port
	fmt.Println()
	fmt.Println("chat-gateway ready")
	fmt.Printf("Listening on http://%s:%d\n", host, port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health")
	if s.cfg.Metrics.Enabled {
		fmt.Printf("  GET  %s\n", s.cfg.Metrics.Path)
	}
	fmt.Println("  POST /api/chat")
	fmt.Println("  POST /api/models")
	fmt.Println("  POST /stream")
	if s.cfg.Auth.Enabled {
		fmt.Printf("Requests must carry a bearer token with the %q role.\n", s.cfg.Auth.RequiredRole)
	}
	fmt.Printf("Example:\n  curl http://%s:%d/api/chat -H 'Content-Type: application/json' -d '{\"endpoint\":\"https://api.openai.com/v1\",\"apiKey\":\"sk-...\",\"model\":\"gpt-4o\",\"messages\":[{\"role\":\"user\",\"content\":\"hello\"}]}'\n\n", host, port)
}
