// Package server exposes the routing engine over HTTP: message dispatch,
// engine statistics, health, and Prometheus metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/dispatch"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/metrics"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/routing"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/internal/profile"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP front of the routing engine.
type Server struct {
	e       *echo.Echo
	profile *profile.Profile

	orchestrator *dispatch.Orchestrator
	hybrid       *routing.HybridRouter
	exporter     *metrics.PrometheusExporter
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(_ context.Context, p *profile.Profile, orchestrator *dispatch.Orchestrator, hybrid *routing.HybridRouter, exporter *metrics.PrometheusExporter) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		e:            e,
		profile:      p,
		orchestrator: orchestrator,
		hybrid:       hybrid,
		exporter:     exporter,
	}

	apiGroup := e.Group("/api/v1")
	apiGroup.POST("/route", s.handleRoute)
	apiGroup.GET("/stats", s.handleStats)
	apiGroup.DELETE("/stats", s.handleStatsReset)

	e.GET("/healthz", s.handleHealth)
	if exporter != nil {
		e.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	}

	return s, nil
}

// Start begins serving on the configured address. It blocks until the
// listener fails or Shutdown is called.
func (s *Server) Start(_ context.Context) error {
	return s.e.Start(s.profile.Addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	_ = s.e.Shutdown(ctx)
}

type routeRequest struct {
	SenderID       string `json:"sender_id"`
	ChannelID      string `json:"channel_id,omitempty"`
	Text           string `json:"text"`
	OrganizationID string `json:"organization_id,omitempty"`
}

func (s *Server) handleRoute(c echo.Context) error {
	var req routeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	msg := &dispatch.IncomingMessage{
		SenderID:       req.SenderID,
		ChannelID:      req.ChannelID,
		Text:           req.Text,
		OrganizationID: req.OrganizationID,
	}

	result, err := s.orchestrator.Handle(c.Request().Context(), msg)
	if err != nil {
		if result == nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		// Routed fine but the handler failed; surface both.
		return c.JSON(http.StatusBadGateway, map[string]any{
			"error":  err.Error(),
			"result": result,
		})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.hybrid.Stats().Snapshot())
}

func (s *Server) handleStatsReset(c echo.Context) error {
	s.hybrid.Stats().Reset()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleHealth(c echo.Context) error {
	statuses := s.orchestrator.HealthCheck(c.Request().Context())
	healthy := true
	for _, st := range statuses {
		if !st.Healthy {
			healthy = false
			break
		}
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]any{
		"healthy":  healthy,
		"handlers": statuses,
	})
}
