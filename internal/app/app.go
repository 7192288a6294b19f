package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/linemk/inventory-system/internal/config"
	"github.com/linemk/inventory-system/internal/kafka"
	"github.com/linemk/inventory-system/internal/service"
	"github.com/linemk/inventory-system/internal/session"
	"github.com/redis/go-redis/v9"
)

const (
	pingTimeout    = 5 * time.Second
	producerBuffer = 1024
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB
	// Redis nil, если сессии хранятся в памяти
	Redis     *redis.Client
	Sessions  session.Store
	Producer  *kafka.Producer
	Publisher service.OrderEventPublisher
}

// NewApp создаёт новый экземпляр App: БД, хранилище сессий и публикация событий
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		Publisher: service.NopPublisher{},
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			db.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		app.Redis = rdb
		app.Sessions = session.NewRedisStore(rdb, cfg.Session.TTL)
		log.Info("sessions stored in redis", slog.String("addr", cfg.Redis.Addr))
	} else {
		app.Sessions = session.NewMemoryStore(cfg.Session.TTL)
		log.Warn("REDIS_ADDR is empty, sessions stored in memory")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		app.Producer = kafka.NewProducer(log, cfg.Kafka.Brokers, cfg.Kafka.Topic, producerBuffer)
		app.Producer.Start()
		app.Publisher = kafka.NewOrderPublisher(app.Producer)
		log.Info("order events enabled", slog.String("topic", cfg.Kafka.Topic))
	}

	return app, nil
}

// Close освобождает ресурсы в обратном порядке: сначала дописываем события, потом закрываем соединения
func (a *App) Close() {
	if a.Producer != nil {
		a.Producer.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("failed to close redis", slog.Any("error", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("failed to close database", slog.Any("error", err))
	}
}
