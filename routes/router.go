package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sweatcircle/sweatcircle/config"
	"github.com/sweatcircle/sweatcircle/controllers"
	"github.com/sweatcircle/sweatcircle/middleware"
	"github.com/sweatcircle/sweatcircle/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	// Load config and set Gin mode from configuration
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
	// Replace default console logger with file-based zap logger
	ginLogPath := cfg.GinPath
	// Use application log level as reference
	gl, err := utils.NewRollingFileLogger(ginLogPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	r.Use(middleware.RequestID())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	checkInController := controllers.NewCheckInController(db)
	groupController := controllers.NewGroupController(db)
	rankingController := controllers.NewRankingController(db)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	checks := api.Group("/checks")
	checks.GET("/:userId", checkInController.ListChecks)
	checks.GET("/:userId/today", checkInController.Today)
	checks.GET("/:userId/today/status", checkInController.TodayStatus)
	checks.GET("/:userId/date/:date", checkInController.ByDate)
	checks.GET("/:userId/lastweek", checkInController.LastWeek)
	checks.GET("/:userId/week", checkInController.Week)

	api.GET("/groupList", groupController.List)
	groupsGroup := api.Group("/groups")
	groupsGroup.GET("/search", groupController.Search)
	groupsGroup.GET("/creator/:creatorId", groupController.ByCreator)
	groupsGroup.GET("/member/:memberId", groupController.ByMember)
	groupsGroup.GET("/not-joined/:userId", groupController.NotJoined)
	groupsGroup.GET("/ranking", rankingController.Groups)
	groupsGroup.GET("/ranking/top50", rankingController.GroupsTop50)

	api.GET("/users/ranking", rankingController.Users)
	api.GET("/users/ranking/top50", rankingController.UsersTop50)
	api.GET("/users/:userId/ranking", rankingController.UserDetail)
	api.GET("/ranking/overview", rankingController.Overview)

	// Public stats endpoint
	api.GET("/stats", statsController.GetStats)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/checkin", checkInController.Submit)
	protected.POST("/groups", groupController.Create)
	protected.POST("/groups/:groupId/join", groupController.Join)
	protected.POST("/groups/:groupId/removeMember", groupController.RemoveMember)
	protected.POST("/groups/:groupId/transferOwner", groupController.TransferOwner)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
