// Package httpapi exposes the chart engine over REST. Handlers are thin: they
// parse parameters, drive a per-request session, and serialize the resulting
// chart datasets.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swotvis/swot-data-service/internal/domain"
	"github.com/swotvis/swot-data-service/internal/observability"
	"github.com/swotvis/swot-data-service/internal/session"
)

// Server bundles router and dependencies for the REST API.
type Server struct {
	addr    string
	fetcher session.TimeSeriesFetcher
	nodes   session.NodeLister
	stats   session.StatisticsComputer
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    []session.Option
	engine  *gin.Engine
}

// New constructs a server with routes and middleware.
func New(addr string, fetcher session.TimeSeriesFetcher, nodes session.NodeLister,
	statsClient session.StatisticsComputer, logger *slog.Logger,
	metrics *observability.Metrics, opts ...session.Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware())

	s := &Server{
		addr:    addr,
		fetcher: fetcher,
		nodes:   nodes,
		stats:   statsClient,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
		engine:  engine,
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/readyz", s.handleReady)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.GET("/variables", s.handleVariables)
	api.GET("/timeseries", s.handleTimeSeries)
	api.GET("/nodes/profile", s.handleNodeProfile)
	api.POST("/statistics", s.handleStatistics)
}

func (s *Server) handleReady(c *gin.Context) {
	if s.fetcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "no upstream configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// newSession builds a fresh session for one request, with an alert collector
// standing in for the viewer's toast notifier.
func (s *Server) newSession(alerts *alertCollector) *session.Session {
	return session.New(s.fetcher, s.nodes, s.stats, alerts, s.logger, s.metrics, s.opts...)
}

// alertCollector records the alerts a request would have raised in the viewer
// so they can travel back in the response body.
type alertCollector struct {
	alerts []domain.Alert
}

func (a *alertCollector) Notify(alert domain.Alert) {
	a.alerts = append(a.alerts, alert)
}

// statusFor maps engine errors to HTTP status codes. Upstream faults surface
// as 502 so callers can tell them from engine bugs.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoVariablesSelected):
		return http.StatusBadRequest
	}

	var qe *domain.QueryError
	if errors.As(err, &qe) {
		return http.StatusBadGateway
	}
	var se *domain.StatisticsError
	if errors.As(err, &se) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) respondError(c *gin.Context, err error, alerts *alertCollector) {
	c.JSON(statusFor(err), gin.H{
		"error":  err.Error(),
		"alerts": alerts.alerts,
	})
}
