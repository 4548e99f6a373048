package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"fanverse-service/internal/auth"
	"fanverse-service/internal/config"
	"fanverse-service/internal/db"
	"fanverse-service/internal/handlers"
	"fanverse-service/internal/logger"
	"fanverse-service/internal/middleware"
	"fanverse-service/internal/observability"
	"fanverse-service/internal/rabbitmq"
	"fanverse-service/internal/repositories"
	"fanverse-service/internal/telemetry"
	"fanverse-service/internal/ws"
)

const serviceName = "fanverse-service"

func main() {
	cfg := config.Load()

	log, err := logger.Init(!cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalw("failed to connect to db", "error", err)
	}
	defer database.Close()

	shutdownTracing, err := observability.SetupTracing(context.Background(), serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalw("failed to set up tracing", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange)
	defer publisher.Close()
	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, serviceName, cfg.Environment)

	if amqpPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AuditExchange); err == nil {
		observability.SetPublisher(amqpPublisher)
		defer amqpPublisher.Close()
	}

	tokens := auth.NewManager(cfg.JWTSecret)

	userRepo := repositories.NewUserRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	reactionRepo := repositories.NewReactionRepo(database)
	preferenceRepo := repositories.NewPreferenceRepo(database)

	hub := ws.NewHub()

	authHandler := handlers.NewAuthHandler(userRepo, preferenceRepo, tokens, audit)
	userHandler := handlers.NewUserHandler(userRepo)
	preferenceHandler := handlers.NewPreferenceHandler(preferenceRepo)
	conversationHandler := handlers.NewConversationHandler(conversationRepo, userRepo, audit)
	messageHandler := handlers.NewMessageHandler(conversationRepo, messageRepo, userRepo, hub, audit)
	reactionHandler := handlers.NewReactionHandler(reactionRepo, messageRepo, hub, audit)
	conversationWS := ws.NewConversationWebSocketHandler(hub, conversationRepo, tokens)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": cfg.Environment,
			"database":    "postgresql",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	authMiddleware := middleware.AuthMiddleware(tokens)

	api := router.Group("/api", rateLimiter.Middleware())

	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	api.GET("/users", userHandler.List)
	api.GET("/users/:userId", userHandler.Get)
	api.POST("/users", userHandler.Create)

	api.POST("/preferences", authMiddleware, preferenceHandler.Save)
	api.GET("/preferences/:userId", authMiddleware, preferenceHandler.Get)

	api.POST("/conversations", authMiddleware, conversationHandler.Resolve)
	api.GET("/conversations/*rest", authMiddleware, conversationHandler.GetDispatch)
	api.DELETE("/conversations/:id/user/:userId", authMiddleware, conversationHandler.DeleteParticipant)

	api.GET("/messages/:id", authMiddleware, messageHandler.List)
	api.POST("/messages", authMiddleware, messageHandler.Send)
	api.PUT("/messages/:id", authMiddleware, messageHandler.Edit)
	api.DELETE("/messages/:id", authMiddleware, messageHandler.Delete)

	api.POST("/messages/:id/reactions", authMiddleware, reactionHandler.React)
	api.DELETE("/messages/:id/reactions/:userId", authMiddleware, reactionHandler.Remove)
	api.GET("/messages/:id/reactions", authMiddleware, reactionHandler.List)

	router.GET("/ws/conversations/:conversation_id", conversationWS.Handle)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Endpoint not found"})
	})

	log.Infow("server starting", "port", cfg.Port, "environment", cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalw("server error", "error", err)
	}
}
