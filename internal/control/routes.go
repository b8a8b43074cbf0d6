// internal/control/routes.go
package control

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-insight/internal/driver"
	"github.com/tamzrod/modbus-insight/internal/insight"
	"github.com/tamzrod/modbus-insight/internal/observability"
	"github.com/tamzrod/modbus-insight/internal/status"
)

// Controller is the command surface of a running driver.
type Controller interface {
	Enable(ctx context.Context, sync bool) error
	Disable(ctx context.Context) error
	Pause(ctx context.Context, state, sync bool) error
	Reset(ctx context.Context) error
	SetPeriod(ctx context.Context, ms uint32) error
	Status(ctx context.Context) (status.Snapshot, error)
}

// commandTimeout bounds how long a request waits for the driver loop.
const commandTimeout = 2 * time.Second

type statusResponse struct {
	State string `json:"state"`
	status.Snapshot
}

// NewRouter wires the control endpoints onto a fresh gin engine.
func NewRouter(ctl Controller, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), observability.RequestLogger(logger), observability.RequestMetricsMiddleware())

	started := time.Now()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(started).Round(time.Second).String(),
		})
	})

	r.GET("/status", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), commandTimeout)
		defer cancel()

		snap, err := ctl.Status(ctx)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, statusResponse{State: snap.State.String(), Snapshot: snap})
	})

	r.POST("/enable", func(c *gin.Context) {
		sync, ok := boolQuery(c, "sync", false)
		if !ok {
			return
		}
		run(c, ctl, func(ctx context.Context) error { return ctl.Enable(ctx, sync) })
	})

	r.POST("/disable", func(c *gin.Context) {
		run(c, ctl, ctl.Disable)
	})

	r.POST("/pause", func(c *gin.Context) {
		if c.Query("state") == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "state query parameter required"})
			return
		}
		state, ok := boolQuery(c, "state", false)
		if !ok {
			return
		}
		sync, ok := boolQuery(c, "sync", false)
		if !ok {
			return
		}
		run(c, ctl, func(ctx context.Context) error { return ctl.Pause(ctx, state, sync) })
	})

	r.POST("/reset", func(c *gin.Context) {
		run(c, ctl, ctl.Reset)
	})

	r.PUT("/period", func(c *gin.Context) {
		ms, err := strconv.ParseUint(c.Query("ms"), 10, 32)
		if err != nil || ms == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ms must be a positive integer"})
			return
		}
		run(c, ctl, func(ctx context.Context) error { return ctl.SetPeriod(ctx, uint32(ms)) })
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// run executes a command and answers with the resulting status.
func run(c *gin.Context, ctl Controller, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), commandTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		fail(c, err)
		return
	}
	snap, err := ctl.Status(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{State: snap.State.String(), Snapshot: snap})
}

func boolQuery(c *gin.Context, key string, def bool) (bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be a boolean"})
		return false, false
	}
	return v, true
}

func fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, insight.ErrNoVariables),
		errors.Is(err, insight.ErrNoSink),
		errors.Is(err, insight.ErrActive):
		code = http.StatusConflict
	case errors.Is(err, driver.ErrStopped):
		code = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
