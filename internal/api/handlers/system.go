package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DBPinger is the database side of readiness.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// NATSPinger reports whether the NATS connection is up.
type NATSPinger interface {
	Ping() error
}

type SystemHandler struct {
	db   DBPinger
	nats NATSPinger
}

// NewSystemHandler builds the health handlers. nats may be nil when the live
// feed is disabled.
func NewSystemHandler(db DBPinger, nats NATSPinger) *SystemHandler {
	return &SystemHandler{db: db, nats: nats}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if h.nats != nil {
		if err := h.nats.Ping(); err != nil {
			checks["nats"] = err.Error()
			healthy = false
		} else {
			checks["nats"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": map[bool]string{true: "ready", false: "not ready"}[healthy],
		"checks": checks,
	})
}
