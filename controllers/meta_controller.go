package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/forumlite/config"
	"github.com/cppla/forumlite/utils"
)

// MetaController serves the API index and the liveness probe.
type MetaController struct {
	cfg config.AppConfig
}

// NewMetaController creates a new MetaController instance.
func NewMetaController(cfg config.AppConfig) *MetaController {
	return &MetaController{cfg: cfg}
}

// Welcome lists the main entry points as absolute URLs.
func (m *MetaController) Welcome(ctx *gin.Context) {
	origin := strings.TrimSuffix(utils.RequestURL(ctx, m.cfg.AppURL), ctx.Request.URL.Path)
	base := origin + "/" + strings.Trim(m.cfg.APIPrefix, "/")
	base = strings.TrimRight(base, "/")

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the Forum Lite API. Please use specific endpoints.",
		"available_resources": gin.H{
			"register":     base + "/register",
			"login":        base + "/login",
			"user_details": base + "/user",
			"list_posts":   base + "/posts",
			"ping":         base + "/ping",
		},
	})
}

// Ping answers liveness checks.
func (m *MetaController) Ping(ctx *gin.Context) {
	utils.Message(ctx, http.StatusOK, "pong")
}
