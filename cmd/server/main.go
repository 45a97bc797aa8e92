package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lakshan-j/threadgate/internal/access"
	"github.com/lakshan-j/threadgate/internal/api"
	"github.com/lakshan-j/threadgate/internal/cache"
	"github.com/lakshan-j/threadgate/internal/chat"
	"github.com/lakshan-j/threadgate/internal/config"
	"github.com/lakshan-j/threadgate/internal/db"
	"github.com/lakshan-j/threadgate/internal/middleware"
	"github.com/lakshan-j/threadgate/internal/observ"
	"github.com/lakshan-j/threadgate/internal/repository/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Startup has no deadline; request contexts do.
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observ.NewMetrics(registry)
	versions := cache.NewVersions(rdb, logger)

	pool := database.Pool()
	accountRepo := postgres.NewAccountStore(pool)
	profileRepo := postgres.NewProfileStore(pool)
	roleRepo := postgres.NewRoleStore(pool)
	entitlementRepo := postgres.NewEntitlementStore(pool)
	blockRepo := postgres.NewBlockStore(pool)
	threadRepo := postgres.NewThreadStore(pool)
	messageRepo := postgres.NewMessageStore(pool)

	accessCtl := access.NewController(entitlementRepo, roleRepo, cfg.TrialDuration, time.Now, logger)
	chatSvc := chat.NewService(threadRepo, messageRepo, blockRepo, accessCtl, time.Now, logger)

	authHandler := api.NewAuthHandler(accountRepo, roleRepo, cfg.JWTSecret, cfg.BootstrapAdminEmail, logger)
	userHandler := api.NewUserHandler(profileRepo, accessCtl, versions, logger)
	accessHandler := api.NewAccessHandler(accessCtl, versions, metrics, logger)
	threadHandler := api.NewThreadHandler(chatSvc, versions, logger)
	messageHandler := api.NewMessageHandler(chatSvc, versions, metrics, logger)
	blockHandler := api.NewBlockHandler(chatSvc, versions, logger)
	syncHandler := api.NewSyncHandler(versions, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Recovery(), metrics.Middleware())

	// Public: health for load balancers, metrics for the scraper, and
	// the two endpoints that produce tokens.
	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})
	srv.GET("/metrics", observ.Handler(registry))
	srv.POST("/v1/auth/signup", authHandler.Signup)
	srv.POST("/v1/auth/login", authHandler.Login)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.POST("/users/register", userHandler.Register)
	v1.GET("/users/exists", userHandler.Exists)
	v1.GET("/users/me", userHandler.Me)
	v1.PUT("/users/me", userHandler.SaveProfile)
	v1.GET("/users/me/admin", userHandler.IsAdmin)
	v1.GET("/users/me/role", userHandler.Role)
	v1.GET("/users", userHandler.List)
	v1.GET("/users/:id", userHandler.Get)
	v1.POST("/users/role", userHandler.AssignRole)

	v1.POST("/access/request", accessHandler.Request)
	v1.GET("/access/check", accessHandler.Has)
	v1.GET("/access/me", accessHandler.Current)
	v1.GET("/access", accessHandler.All)
	v1.GET("/access/users/:id", accessHandler.Get)
	v1.POST("/access/grant", accessHandler.Grant)
	v1.POST("/access/revoke", accessHandler.Revoke)
	v1.POST("/access/approve", accessHandler.Approve)
	v1.POST("/access/temporary", accessHandler.SwitchTemporary)

	sendLimiter := middleware.NewSendLimiter(cfg.SendPerMinute, cfg.SendBurst)

	v1.POST("/threads", threadHandler.Create)
	v1.GET("/threads", threadHandler.List)
	v1.GET("/threads/:id", threadHandler.Get)
	v1.GET("/threads/:id/messages", threadHandler.Messages)
	v1.DELETE("/threads/:id", threadHandler.Delete)
	v1.POST("/threads/:id/messages", sendLimiter.Middleware(), messageHandler.Send)
	v1.PUT("/threads/:id/messages/:msgID", messageHandler.Edit)
	v1.DELETE("/threads/:id/messages/:msgID", messageHandler.Delete)

	v1.PUT("/blocks/:id", blockHandler.Block)
	v1.DELETE("/blocks/:id", blockHandler.Unblock)
	v1.GET("/blocks/:id", blockHandler.Has)
	v1.GET("/blocks", blockHandler.List)

	v1.GET("/sync/versions", syncHandler.Versions)
	v1.GET("/sync/threads/:id", syncHandler.ThreadVersion)

	logger.Info("starting threadgate",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)
	return srv.Run(":" + cfg.Port)
}
