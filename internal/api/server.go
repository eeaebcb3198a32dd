package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/bendanzhentan/eliza/internal/loop"
)

// Server exposes the agent's health and loop progress over HTTP. It is
// read-only; nothing here mutates agent state.
type Server struct {
	echo   *echo.Echo
	listen string
	driver *loop.Driver
	logger zerolog.Logger
}

// NewServer creates the status server. listen is a host:port string.
func NewServer(listen string, driver *loop.Driver, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	server := &Server{
		echo:   e,
		listen: listen,
		driver: driver,
		logger: logger.With().Str("component", "api").Logger(),
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.healthz)
	s.echo.GET("/status", s.status)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("listen", s.listen).Msg("status server starting")
	if err := s.echo.Start(s.listen); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// statusResponse is the /status payload.
type statusResponse struct {
	Stats loop.Stats `json:"stats"`
	Now   time.Time  `json:"now"`
}

func (s *Server) status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Stats: s.driver.Stats(),
		Now:   time.Now().UTC(),
	})
}
