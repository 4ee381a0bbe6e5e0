package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/karlodelara/ojtlog/config"
	"github.com/karlodelara/ojtlog/controllers"
	"github.com/karlodelara/ojtlog/localstore"
	"github.com/karlodelara/ojtlog/middleware"
	"github.com/karlodelara/ojtlog/repository"
	"github.com/karlodelara/ojtlog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, local *localstore.Store) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Request logging goes to its own rolling file so access noise stays
	// out of the application log.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	watcher := utils.NewAuthWatcher()
	cache := repository.NewCache(time.Duration(cfg.ListCacheTTLSeconds) * time.Second)
	repo := repository.NewLogRepository(db, cache, middleware.ContextIdentity{}, local)

	// Cached list pages become useless the moment their owner signs out.
	watcher.Subscribe(func(ev utils.AuthEvent) {
		if !ev.SignedIn {
			repo.InvalidateLists()
		}
	})

	authController := controllers.NewAuthController(db, watcher)
	logController := controllers.NewLogController(repo, local)
	settingsController := controllers.NewSettingsController(local)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Reads resolve identity when present; unauthenticated callers get
	// empty results instead of 401s.
	reads := api.Group("")
	reads.Use(middleware.OptionalAuth())
	reads.GET("/logs", logController.List)
	reads.GET("/logs/progress", logController.Progress)
	reads.GET("/logs/:id", logController.Get)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/logs", logController.Create)
	protected.PUT("/logs/:id", logController.Update)
	protected.DELETE("/logs/:id", logController.Delete)
	protected.POST("/legacy/import", logController.ImportLegacy)

	api.GET("/legacy", logController.LegacyStatus)
	api.GET("/settings", settingsController.Get)
	api.PUT("/settings", middleware.AuthRequired(), settingsController.Update)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
