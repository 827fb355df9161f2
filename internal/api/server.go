package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/campushub/services/events/config"
	"example.com/campushub/services/events/internal/api/handlers"
	"example.com/campushub/services/events/internal/api/middleware"
	"example.com/campushub/services/events/internal/metrics"
	"example.com/campushub/services/events/internal/repositories"
	"example.com/campushub/services/events/internal/services"
	"example.com/campushub/services/events/internal/tracing"
)

// Server represents the HTTP server
type Server struct {
	config              config.Config
	router              *gin.Engine
	httpServer          *http.Server
	registrationService *services.RegistrationService
	notifications       *repositories.NotificationRepository
	metrics             *metrics.Metrics
	tracer              tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	registrationService *services.RegistrationService,
	notifications *repositories.NotificationRepository,
	collector *metrics.Metrics,
	tracer tracing.Tracer,
) *Server {
	server := &Server{
		config:              cfg,
		registrationService: registrationService,
		notifications:       notifications,
		metrics:             collector,
		tracer:              tracer,
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: server.router,
	}

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())

	metricsHandler := handlers.NewMetricsHandler(s.metrics)
	metricsHandler.RegisterRoutes(router)

	// Everything under /api/v1 requires the gateway-verified identity
	api := router.Group("/api/v1")
	api.Use(middleware.RequireUser())

	registrationHandler := handlers.NewRegistrationHandler(s.registrationService, s.tracer)
	registrationHandler.RegisterRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(s.notifications, s.tracer)
	notificationHandler.RegisterRoutes(api)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
