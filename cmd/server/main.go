package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minglehq/backend/internal/cache"
	"github.com/minglehq/backend/internal/database"
	"github.com/minglehq/backend/internal/handlers"
	"github.com/minglehq/backend/internal/logger"
	"github.com/minglehq/backend/internal/metrics"
	"github.com/minglehq/backend/internal/middleware"
	"github.com/minglehq/backend/internal/notify"
	"github.com/minglehq/backend/internal/telemetry"
	"github.com/minglehq/backend/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine in production, where config comes from the
	// environment
	_ = godotenv.Load()

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Close()

	logger.Log.Info("=== Mingle server starting ===")

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}

	// Redis is optional: without it the rate limiter and caches are no-ops
	if os.Getenv("REDIS_HOST") != "" {
		if _, err := cache.NewRedisClient(
			os.Getenv("REDIS_HOST"),
			os.Getenv("REDIS_PORT"),
			os.Getenv("REDIS_PASSWORD"),
		); err != nil {
			logger.WarnWithFields("Redis unavailable, continuing without it", err)
		}
	}

	// Tracing is optional too
	samplingRate := 1.0
	if v := os.Getenv("OTEL_SAMPLING_RATE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			samplingRate = parsed
		}
	}
	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "mingle-backend",
		Environment:  os.Getenv("ENVIRONMENT"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Enabled:      os.Getenv("OTEL_ENABLED") == "true",
		SamplingRate: samplingRate,
	})
	if err != nil {
		logger.WarnWithFields("Failed to initialize tracing", err)
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()
	}

	metrics.Initialize()

	// Real-time side channel
	wsHub := websocket.NewHub()
	go wsHub.Run()
	wsHandler := websocket.NewHandler(wsHub, jwtSecret)

	notifier := notify.NewService(database.DB, wsHub)
	h := handlers.NewHandlers(wsHub, notifier)

	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if tp != nil {
		r.Use(middleware.TracingMiddleware("mingle-backend"))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.Use(middleware.RedisRateLimitMiddleware(300, time.Minute))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		body := gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "mingle-backend",
		}
		// Redis is optional, so its state never degrades overall health
		if rc := cache.GetRedisClient(); rc != nil {
			body["redis"] = "ok"
			if err := rc.Ping(c.Request.Context()); err != nil {
				body["redis"] = "unavailable"
			}
		}
		c.JSON(code, body)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := handlers.AuthMiddleware(jwtSecret)

	api := r.Group("/api/v1")
	{
		posts := api.Group("/posts")
		{
			posts.Use(auth)
			posts.POST("", h.CreatePost)
			posts.GET("", h.GetPosts)
			posts.GET("/search", h.SearchPosts)
			posts.GET("/top-tags", h.TopTags)
			posts.GET("/:id", h.GetPost)
			posts.PUT("/:id", h.UpdatePost)
			posts.DELETE("/:id", h.DeletePost)
			posts.POST("/:id/like", h.ToggleLike)
			posts.POST("/:id/comment", h.CreateComment)
			posts.DELETE("/:id/comment/:commentId", h.DeleteComment)
		}

		users := api.Group("/users")
		{
			users.Use(auth)
			users.GET("", middleware.RequireAdmin(), h.ListUsers)
			users.PUT("", h.UpdateUser)
			users.GET("/me", h.GetMe)
			users.GET("/friends", h.GetFriends)
			users.GET("/search", h.SearchUsers)
			users.GET("/user/:username", h.GetUserByUsername)
			users.POST("/follow/:id", h.FollowUser)
			users.GET("/:id", h.GetUser)
			users.GET("/:id/followers", h.GetFollowers)
			users.GET("/:id/following", h.GetFollowing)
			users.DELETE("/:id", h.DeleteUser)
		}

		notifications := api.Group("/notifications")
		{
			notifications.Use(auth)
			notifications.GET("", h.GetNotifications)
			notifications.POST("", h.CreateNotification)
			notifications.POST("/all", middleware.RequireAdmin(), h.BroadcastNotification)
			notifications.PATCH("/read-all", h.MarkAllNotificationsRead)
			notifications.PATCH("/:id/read", h.MarkNotificationRead)
			notifications.DELETE("/:id", h.DeleteNotification)
		}

		messages := api.Group("/messages")
		{
			messages.Use(auth)
			messages.POST("", h.SendMessage)
			messages.GET("/:id", h.GetConversation)
			messages.PATCH("/:id/read", h.MarkMessageRead)
		}

		ws := api.Group("/ws")
		{
			// Connection auth happens inside the handler, via ?token= or header
			ws.GET("", wsHandler.HandleWebSocket)
			ws.GET("/connect", wsHandler.HandleWebSocket)
			ws.GET("/metrics", auth, wsHandler.HandleMetrics)
			ws.POST("/online", auth, wsHandler.HandleOnlineStatus)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8787"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Mingle backend listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wsHandler.Shutdown(ctx); err != nil {
		logger.WarnWithFields("WebSocket shutdown warning", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("Server forced to shutdown", err)
	}

	logger.Log.Info("Server exited")
}
