package http

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	appsvc "coffee-salon/internal/app"
	"coffee-salon/internal/bootstrap"
	"coffee-salon/internal/cache"
	"coffee-salon/internal/config"
	rabbitmqClient "coffee-salon/internal/platform/rabbitmq"
	"coffee-salon/internal/realtime"
	"coffee-salon/internal/repository"
	"coffee-salon/internal/transport/http/handler"
	"coffee-salon/internal/transport/http/middleware"
	"coffee-salon/internal/transport/http/response"
)

// Services is everything the router dispatches to.
type Services struct {
	Auth     *appsvc.AuthService
	Salons   *appsvc.SalonService
	Messages *appsvc.MessageService
	Hub      *realtime.Hub
	Health   *handler.HealthHandler
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config

	userRepo := repository.NewUserRepository(app.MySQL)
	profileRepo := repository.NewProfileRepository(app.MySQL)
	salonRepo := repository.NewSalonRepository(app.MySQL)
	participantRepo := repository.NewParticipantRepository(app.MySQL)
	agentRepo := repository.NewAgentMessageRepository(app.MySQL)
	userMessageRepo := repository.NewUserMessageRepository(app.MySQL)

	transcriptCache := cache.NewTranscriptCache(
		app.Redis,
		time.Duration(cfg.Redis.TranscriptTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.TranscriptDirtyTTLSeconds)*time.Second,
	)
	publisher := rabbitmqClient.NewChangePublisher(app.MQConn, cfg.RabbitMQ.ChangesExchange)
	recorder := appsvc.NewMessageRecorder(agentRepo, userMessageRepo, publisher, transcriptCache)

	services := Services{
		Auth: appsvc.NewAuthService(
			userRepo,
			profileRepo,
			cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		),
		Salons: appsvc.NewSalonService(
			salonRepo,
			participantRepo,
			recorder,
			cfg.Salon.ListLimit,
			cfg.Salon.DefaultMaxParticipants,
		),
		Messages: appsvc.NewMessageService(agentRepo, userMessageRepo, recorder, transcriptCache),
		Hub:      app.Hub,
		Health: handler.NewHealthHandler(cfg.App.Name, cfg.App.Env, app.StartedAt,
			handler.DependencyCheck{Name: "mysql", Check: func(ctx context.Context) error {
				sqlDB, err := app.MySQL.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}},
			handler.DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
				return app.Redis.Ping(ctx).Err()
			}},
			handler.DependencyCheck{Name: "rabbitmq", Check: func(context.Context) error {
				if app.MQConn == nil || app.MQConn.IsClosed() {
					return errors.New("connection closed")
				}
				return nil
			}},
		),
	}
	return NewEngine(cfg, app.Logger, services)
}

// NewEngine mounts every route on a fresh gin engine.
func NewEngine(cfg *config.Config, logger zerolog.Logger, s Services) *gin.Engine {
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.Recovery(),
		middleware.Metrics(),
		middleware.CORS(),
		middleware.ResolveIdentity(s.Auth),
	)

	router.GET("/healthz", s.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	functionsHandler := handler.NewFunctionsHandler(s.Salons, s.Messages)
	authHandler := handler.NewAuthHandler(s.Auth)
	salonHandler := handler.NewSalonHandler(s.Salons, s.Messages)
	streamHandler := handler.NewStreamHandler(
		s.Hub,
		s.Messages,
		time.Duration(cfg.Realtime.PingIntervalSecond)*time.Second,
		int64(cfg.Realtime.ReadLimitBytes),
	)

	functions := router.Group("/functions/v1")
	functions.POST("/salon-manager", middleware.ErrorCode(response.CodeSalonManagementFailed), functionsHandler.SalonManager)
	functions.POST("/agent-scheduler", middleware.ErrorCode(response.CodeAgentSchedulingFailed), functionsHandler.AgentScheduler)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth", middleware.ErrorCode(response.CodeAuthFailed))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authHandler.Me)
	v1.GET("/profile", middleware.ErrorCode(response.CodeAuthFailed), authHandler.Profile)

	salonGroup := v1.Group("/salons")
	salonGroup.GET("/:id", middleware.ErrorCode(response.CodeSalonFailed), salonHandler.Get)
	salonGroup.GET("/:id/messages", middleware.ErrorCode(response.CodeMessageFailed), salonHandler.ListMessages)
	salonGroup.POST("/:id/messages", middleware.ErrorCode(response.CodeMessageFailed), salonHandler.SendMessage)
	salonGroup.GET("/:id/stream", streamHandler.Stream)

	return router
}
