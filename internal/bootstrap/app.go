package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"coffee-salon/internal/config"
	"coffee-salon/internal/logger"
	mysqlClient "coffee-salon/internal/platform/mysql"
	rabbitmqClient "coffee-salon/internal/platform/rabbitmq"
	redisClient "coffee-salon/internal/platform/redis"
	"coffee-salon/internal/realtime"
	"coffee-salon/internal/worker"
)

type App struct {
	Config       *config.Config
	Logger       zerolog.Logger
	MySQL        *gorm.DB
	Redis        *redis.Client
	MQConn       *rabbitmqClient.Conn
	Hub          *realtime.Hub
	ChangeWorker *worker.ChangeStreamWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log := logger.Init(cfg.Log, cfg.App.Name)

	app := &App{Config: cfg, Logger: log}

	app.MySQL, err = mysqlClient.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := mysqlClient.Migrate(app.MySQL); err != nil {
		return nil, app.closeAfter(err)
	}

	app.Redis, err = redisClient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, app.closeAfter(err)
	}

	app.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ChangesExchange)
	if err != nil {
		return nil, app.closeAfter(err)
	}

	app.Hub = realtime.NewHub(cfg.Realtime.SubscriberBuffer)
	changeWorker := worker.NewChangeStreamWorker(app.MQConn, app.Hub, cfg.RabbitMQ.ChangesExchange)
	if err := changeWorker.Start(ctx); err != nil {
		return nil, app.closeAfter(fmt.Errorf("start change stream worker failed: %w", err))
	}
	app.ChangeWorker = changeWorker

	log.Info().
		Str("env", cfg.App.Env).
		Str("exchange", cfg.RabbitMQ.ChangesExchange).
		Msg("dependencies ready")

	app.StartedAt = time.Now()
	return app, nil
}

// closeAfter releases whatever New opened before failing with err.
func (a *App) closeAfter(err error) error {
	if closeErr := a.Close(); closeErr != nil {
		a.Logger.Warn().Err(closeErr).Msg("close partially started app failed")
	}
	return err
}

func (a *App) Close() error {
	var closeErr error
	if a.ChangeWorker != nil {
		a.ChangeWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
