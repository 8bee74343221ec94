package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
	"tempvoice/internal/infrastructure/middleware"
	"tempvoice/internal/infrastructure/monitoring"
	"tempvoice/internal/core/services"
	"tempvoice/pkg/errors"
)

const defaultStatsWindow = 24 * time.Hour

// DashboardHandler serves the read-only analytics API.
type DashboardHandler struct {
	analytics ports.AnalyticsService
	health    *monitoring.HealthChecker
}

func NewDashboardHandler(analytics ports.AnalyticsService, health *monitoring.HealthChecker) *DashboardHandler {
	return &DashboardHandler{
		analytics: analytics,
		health:    health,
	}
}

func (h *DashboardHandler) SetupRoutes(router *gin.Engine, auth services.AuthService) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(auth))
	{
		api.GET("/guilds/:guild/stats", h.GuildStats)
		api.GET("/channels", h.ActiveChannels)
		api.GET("/presets", h.Presets)
	}
}

func (h *DashboardHandler) Health(c *gin.Context) {
	status := h.health.CheckAll(c.Request.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// GuildStats aggregates recorded events for one guild. The window defaults
// to 24 hours and is overridable via ?hours=N.
func (h *DashboardHandler) GuildStats(c *gin.Context) {
	guild := domain.GuildID(c.Param("guild"))

	window := defaultStatsWindow
	if raw := c.Query("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 || hours > 24*90 {
			c.Error(errors.NewInvalidInput("hours must be between 1 and 2160"))
			return
		}
		window = time.Duration(hours) * time.Hour
	}

	stats, err := h.analytics.Stats(c.Request.Context(), guild, time.Now().Add(-window))
	if err != nil {
		c.Error(errors.Wrap(err, errors.ErrCodeInternal, "failed to aggregate stats"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *DashboardHandler) ActiveChannels(c *gin.Context) {
	channels := h.analytics.ActiveChannels(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"channels": channels,
		"count":    len(channels),
	})
}

func (h *DashboardHandler) Presets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": domain.Presets()})
}
