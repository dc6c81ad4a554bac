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
	"github.com/linemk/order-service/internal/app"
	"github.com/linemk/order-service/internal/app/handlers"
	"github.com/linemk/order-service/internal/config"
	"github.com/linemk/order-service/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/order-service/internal/lib/logger"
	"github.com/linemk/order-service/internal/lib/logger/handlers/urllog"
	"github.com/linemk/order-service/internal/service"
	"github.com/linemk/order-service/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(application.Config.JWT.TokenTTL)*time.Minute)
	orderService := service.NewOrderService(application.Logger, application.DB, productRepo, orderRepo)
	queryService := service.NewOrderQueryService(application.Logger, orderRepo)

	// эндпоинт для аутентификации
	router.Post("/api/auth", handlers.AuthHandler(application.Logger, authService))

	router.Route("/api/v1/orders", func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)
		// оформление заказа и список заказов владельца
		r.Post("/", handlers.CreateOrderHandler(application.Logger, orderService))
		r.Get("/", handlers.ListOrdersHandler(application.Logger, queryService))
		// административный список всех заказов
		r.With(jwtmiddleware.RequireAdmin).Get("/all", handlers.ListAllOrdersHandler(application.Logger, queryService))
		// просмотр и отмена конкретного заказа
		r.Get("/{id}", handlers.GetOrderHandler(application.Logger, orderService))
		r.Post("/{id}/cancel", handlers.CancelOrderHandler(application.Logger, orderService))
		// административная смена статуса
		r.With(jwtmiddleware.RequireAdmin).Put("/{id}/status", handlers.UpdateOrderStatusHandler(application.Logger, orderService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
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
