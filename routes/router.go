package routes

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/cppla/forumlite/config"
	"github.com/cppla/forumlite/controllers"
	"github.com/cppla/forumlite/middleware"
	"github.com/cppla/forumlite/utils"
)

// SetupRouter wires routes, middlewares, and controllers. store backs the request
// throttles; pass utils.NewRateLimitStore(utils.GetRedis()) outside of tests.
func SetupRouter(db *gorm.DB, cfg config.AppConfig, store utils.RateLimitStore) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	var metrics *middleware.Metrics
	registry := prometheus.NewRegistry()
	if !cfg.MetricsDisabled {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = middleware.NewMetrics(registry)
	}

	r.Use(middleware.RequestID())
	r.Use(utils.Ginzap(utils.Logger, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(utils.Logger, true))
	r.Use(metrics.Middleware())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		// Credentials cannot be combined with a wildcard origin.
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	if !cfg.MetricsDisabled {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	limiter := middleware.NewRateLimiter(store, db, metrics)
	authThrottle := limiter.Limit(middleware.PolicyAuth, cfg.RateLimits.Auth, false)
	apiThrottle := limiter.Limit(middleware.PolicyAPI, cfg.RateLimits.API, true)
	rowLimit := func(kind string) gin.HandlerFunc {
		return middleware.CheckTableRowLimit(db, cfg.AppLimits, kind, metrics)
	}
	auth := middleware.AuthRequired(db)

	authController := controllers.NewAuthController(db)
	userController := controllers.NewUserController(db, cfg)
	postController := controllers.NewPostController(db, cfg)
	commentController := controllers.NewCommentController(db, cfg)
	metaController := controllers.NewMetaController(cfg)

	api := r.Group(cfg.APIPrefix)
	api.GET("", metaController.Welcome)

	api.POST("/register", authThrottle, rowLimit(middleware.KindUser), authController.Register)
	api.POST("/login", authThrottle, authController.Login)

	throttled := api.Group("")
	throttled.Use(apiThrottle)

	throttled.GET("/ping", metaController.Ping)
	throttled.GET("/posts", postController.ListPosts)
	throttled.GET("/posts/:id", postController.GetPost)
	throttled.GET("/posts/:id/comments", commentController.ListComments)

	throttled.POST("/logout", auth, authController.Logout)
	throttled.GET("/user", auth, userController.Me)
	throttled.GET("/user/posts", auth, userController.ListMyPosts)
	throttled.GET("/user/comments", auth, userController.ListMyComments)

	throttled.POST("/posts", rowLimit(middleware.KindPost), auth, postController.CreatePost)
	throttled.PUT("/posts/:id", auth, postController.UpdatePost)
	throttled.PATCH("/posts/:id", auth, postController.UpdatePost)
	throttled.DELETE("/posts/:id", auth, postController.DeletePost)

	throttled.POST("/posts/:id/comments", rowLimit(middleware.KindComment), auth, commentController.CreateComment)
	throttled.PUT("/comments/:id", auth, commentController.UpdateComment)
	throttled.PATCH("/comments/:id", auth, commentController.UpdateComment)
	throttled.DELETE("/comments/:id", auth, commentController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		path := strings.TrimPrefix(ctx.Request.URL.Path, "/")
		utils.Error(ctx, http.StatusNotFound, fmt.Sprintf("The route %s could not be found.", path))
	})
	r.NoMethod(func(ctx *gin.Context) {
		path := strings.TrimPrefix(ctx.Request.URL.Path, "/")
		utils.Error(ctx, http.StatusMethodNotAllowed,
			fmt.Sprintf("The %s method is not supported for route %s.", ctx.Request.Method, path))
	})

	return r
}
