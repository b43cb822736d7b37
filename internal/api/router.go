package api

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/facelog/internal/api/handlers"
	"github.com/your-org/facelog/internal/api/ws"
	"github.com/your-org/facelog/internal/auth"
)

// Store is the database surface the dashboard reads from.
type Store interface {
	handlers.DBPinger
	handlers.FaceLogReader
}

type RouterConfig struct {
	APIKey string
	DB     Store
	// NATS is nil when the live feed is disabled.
	NATS handlers.NATSPinger
	Hub  *ws.Hub
}

func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	tmpl, err := handlers.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())
	r.SetHTMLTemplate(tmpl)

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.NATS)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Zone pages (no auth)
	zones := r.Group("/zones")
	for _, p := range handlers.ZonePages {
		zones.GET(p.Path, p.Render)
	}

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	faceLogH := handlers.NewFaceLogHandler(cfg.DB)
	v1.GET("/face-logs", faceLogH.List)

	if cfg.Hub != nil {
		v1.GET("/ws", cfg.Hub.HandleWS)
	}

	return r, nil
}
