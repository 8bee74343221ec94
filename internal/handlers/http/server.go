package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tempvoice/internal/core/ports"
	"tempvoice/internal/core/services"
	"tempvoice/internal/infrastructure/middleware"
	"tempvoice/internal/infrastructure/monitoring"
	"tempvoice/pkg/config"
	pkglogger "tempvoice/pkg/logger"
)

// Server is the dashboard HTTP server: read-only analytics endpoints, a
// websocket live feed, health and Prometheus metrics.
type Server struct {
	httpServer *http.Server
	logger     *zap.SugaredLogger
}

func NewServer(
	cfg *config.Config,
	analytics ports.AnalyticsService,
	auth services.AuthService,
	health *monitoring.HealthChecker,
	logger *zap.SugaredLogger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.RequestLoggingMiddleware(pkglogger.NewContextLogger(logger.Desugar())))
	router.Use(middleware.ErrorHandlerMiddleware(logger))
	router.Use(middleware.CORSMiddleware(cfg.Dashboard.Auth.AllowedOrigins))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	NewAuthHandler(auth, cfg.Dashboard.Auth.ViewerKey).SetupRoutes(router)
	NewDashboardHandler(analytics, health).SetupRoutes(router, auth)
	NewLiveFeed(analytics, auth, cfg.Dashboard.Auth.AllowedOrigins, logger).SetupRoutes(router)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Dashboard.Address,
			Handler:      router,
			ReadTimeout:  cfg.Dashboard.ReadTimeout,
			WriteTimeout: cfg.Dashboard.WriteTimeout,
		},
		logger: logger,
	}
}

// Run blocks serving requests until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Infow("dashboard listening", "address", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
