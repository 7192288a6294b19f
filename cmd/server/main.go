package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/inventory-system/internal/app"
	"github.com/linemk/inventory-system/internal/app/handlers"
	"github.com/linemk/inventory-system/internal/config"
	"github.com/linemk/inventory-system/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/inventory-system/internal/lib/logger"
	"github.com/linemk/inventory-system/internal/lib/logger/handlers/urllog"
	"github.com/linemk/inventory-system/internal/service"
	"github.com/linemk/inventory-system/internal/storage"
	"github.com/linemk/inventory-system/internal/views"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения: конфиг, БД, сессии, события
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	templates, err := views.New()
	if err != nil {
		log.Error("failed to parse templates", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to parse templates"))
	}

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)

	// реализация слоев по работе с БД по каждой таблице
	sellerRepo := storage.NewSellerRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	itemRepo := storage.NewOrderItemRepository(application.DB)

	authService := service.NewAuthService(application.Logger, sellerRepo)
	catalogService := service.NewCatalogService(application.Logger, productRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, productRepo, orderRepo, itemRepo, application.Publisher)

	sessions := jwtmiddleware.NewSessions(application.Logger, application.Sessions, []byte(cfg.Session.Secret), jwtmiddleware.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.SecureCookie,
	})

	handlers.Register(router, handlers.Deps{
		Log:         application.Logger,
		Auth:        authService,
		Catalog:     catalogService,
		Orders:      orderService,
		Sessions:    sessions,
		Views:       templates,
		LoadSession: sessions.Load,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address(),
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
