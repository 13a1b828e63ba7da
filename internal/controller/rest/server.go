// Package rest provides the HTTP API of the office scheduler.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/metrics"
	"github.com/Freeeeeet/office_scheduler/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server provides HTTP endpoints for slots and bookings.
type Server struct {
	echo     *echo.Echo
	slots    *service.SlotService
	bookings *service.BookingService
	auth     *Authenticator
	logger   *zap.Logger
	addr     string
}

// Config holds HTTP server configuration.
type Config struct {
	Addr      string
	JWTSecret []byte
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(slots *service.SlotService, bookings *service.BookingService, logger *zap.Logger, cfg Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger, cfg.Metrics))

	s := &Server{
		echo:     e,
		slots:    slots,
		bookings: bookings,
		auth:     NewAuthenticator(cfg.JWTSecret, logger),
		logger:   logger,
		addr:     cfg.Addr,
	}

	s.registerRoutes(cfg.Gatherer)

	return s
}

func requestLogger(logger *zap.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// статус ответа выставляется только после обработки ошибки
				c.Error(err)
			}
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			if m != nil {
				m.ObserveHTTP(c.Request().Method, c.Path(), c.Response().Status, duration)
			}

			return nil
		}
	}
}

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	s.echo.GET("/health", s.handleHealth)

	if gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := s.echo.Group("/api")
	api.GET("/slots/available", s.handleAvailableSlots)

	authenticated := s.auth.Middleware()
	api.POST("/bookings", s.handleCreateBooking, authenticated)
	api.GET("/bookings", s.handleListBookings, authenticated)
	api.GET("/bookings/:id", s.handleGetBooking, authenticated)

	admin := api.Group("/admin", s.auth.Middleware(), RequireAdmin())
	admin.POST("/slots", s.handleCreateSlot)
	admin.POST("/slots/batch", s.handleCreateSlotBatch)
	admin.GET("/slots", s.handleListSlots)
	admin.PATCH("/slots/:id", s.handleUpdateSlot)
	admin.DELETE("/slots/:id", s.handleDeleteSlot)
	admin.GET("/bookings", s.handleAdminListBookings)
	admin.PATCH("/bookings/:id", s.handleUpdateBooking)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// ServeHTTP lets tests drive the server without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.addr))
	return s.echo.Start(s.addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
