package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/UserApp/internal/config"
	"github.com/GoArmGo/UserApp/internal/core/ports"
	"github.com/GoArmGo/UserApp/internal/handler"
	"github.com/GoArmGo/UserApp/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// runServer запускает HTTP сервер и фонового потребителя уведомлений.
// Подписка на топик устанавливается один раз при старте и живет
// параллельно с обработкой запросов, не влияя на нее
func runServer(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	userUseCase usecase.UserUseCase,
	consumer ports.UserEventConsumer,
) error {
	if err := consumer.StartConsumingUserEvents(ctx, userEventLogger(logger)); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя уведомлений: %w", err)
	}

	userHandler := handler.NewUserHandler(userUseCase, logger)

	r := chi.NewRouter()
	r.Use(handler.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.ListUsers)
		r.Post("/", userHandler.CreateUser)
		r.Get("/{id}", userHandler.GetUser)
		r.Put("/{id}", userHandler.UpdateUser)
		r.Delete("/{id}", userHandler.DeleteUser)
	})

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: r,
	}

	go func() {
		log.Printf("Сервер запущен на %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Ошибка при запуске сервера: %v", err)
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	log.Println("Получен сигнал завершения. Завершаем работу сервера...")

	ctxServer, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxServer); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Println("Сервер успешно завершил работу.")
	return nil
}

// userEventLogger возвращает обработчик сообщений, который только логирует их:
// у потребителя нет логики повторов, подтверждений или dead-letter
func userEventLogger(logger *slog.Logger) func(context.Context, string) error {
	return func(ctx context.Context, message string) error {
		logger.Info("user event received", "message", message)
		return nil
	}
}
