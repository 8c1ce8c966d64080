// Package http wires the REST surface and the websocket endpoint into one
// gin engine.
package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/securewatch/securewatch/internal/access"
	"github.com/securewatch/securewatch/internal/adapters/ws"
	"github.com/securewatch/securewatch/internal/config"
	"github.com/securewatch/securewatch/internal/store"
)

func SetupRouter(ctx context.Context, cfg *config.Config, st *store.Store, svc *access.Service, wsCtl *ws.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := &Handler{
		store:    st,
		access:   svc,
		validate: validator.New(),
	}

	api := r.Group("/api")
	api.POST("/monitors", h.CreateMonitor)
	api.POST("/monitors/validate", h.ValidateAccessCode)
	api.GET("/monitors/:id/cameras", h.ListCameras)
	api.POST("/cameras", h.CreateCamera)
	api.GET("/cameras/:id", h.GetCamera)
	api.PUT("/cameras/:id/settings", h.UpdateCameraSettings)
	api.GET("/cameras/:id/motion-events", h.ListMotionEvents)

	r.GET("/ws", func(c *gin.Context) {
		wsCtl.Handle(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
