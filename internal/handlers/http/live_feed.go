package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/ports"
	"tempvoice/internal/core/services"
)

const (
	feedInterval = 5 * time.Second
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
)

// LiveFeed streams periodic snapshot frames (active channels plus the
// guild's rolling stats) to connected dashboard clients.
type LiveFeed struct {
	analytics ports.AnalyticsService
	auth      services.AuthService
	upgrader  websocket.Upgrader
	logger    *zap.SugaredLogger
}

type feedFrame struct {
	Timestamp time.Time              `json:"timestamp"`
	Channels  []domain.ActiveChannel `json:"channels"`
	Stats     *domain.GuildStats     `json:"stats,omitempty"`
}

func NewLiveFeed(analytics ports.AnalyticsService, auth services.AuthService, allowedOrigins []string, logger *zap.SugaredLogger) *LiveFeed {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &LiveFeed{
		analytics: analytics,
		auth:      auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
		logger: logger,
	}
}

func (f *LiveFeed) SetupRoutes(router *gin.Engine) {
	router.GET("/api/v1/live", f.Handle)
}

// Handle upgrades the connection and pushes frames until the client goes
// away. The bearer token rides in the query string since browsers cannot set
// websocket headers.
func (f *LiveFeed) Handle(c *gin.Context) {
	token := c.Query("token")
	if _, err := f.auth.ValidateToken(token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	guild := domain.GuildID(c.Query("guild"))

	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	// drain client frames so pongs and close frames are processed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedInterval)
	defer ticker.Stop()

	if err := f.push(conn, guild); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := f.push(conn, guild); err != nil {
				return
			}
		}
	}
}

func (f *LiveFeed) push(conn *websocket.Conn, guild domain.GuildID) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	frame := feedFrame{
		Timestamp: time.Now(),
		Channels:  f.analytics.ActiveChannels(ctx),
	}
	if guild != "" {
		if stats, err := f.analytics.Stats(ctx, guild, time.Now().Add(-defaultStatsWindow)); err == nil {
			frame.Stats = stats
		}
	}

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(frame)
}
