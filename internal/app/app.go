package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/UserApp/internal/config"
	"github.com/GoArmGo/UserApp/internal/core/ports"
	"github.com/GoArmGo/UserApp/internal/usecase"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Config      *config.Config
	logger      *slog.Logger
	db          *sqlx.DB
	userUseCase usecase.UserUseCase
	consumer    ports.UserEventConsumer
	cacheCloser func() error
}

func NewApp(cfg *config.Config,
	logger *slog.Logger,
	db *sqlx.DB,
	userUseCase usecase.UserUseCase,
	consumer ports.UserEventConsumer,
	cacheCloser func() error) *App {
	return &App{
		Config:      cfg,
		logger:      logger,
		db:          db,
		userUseCase: userUseCase,
		consumer:    consumer,
		cacheCloser: cacheCloser,
	}
}

func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

func (a *App) Run(ctx context.Context, mode *string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("[app] Запуск в режиме: %s", *mode)

	var err error

	switch *mode {
	case "server":
		err = runServer(ctx, a.Config, a.logger, a.userUseCase, a.consumer)

	case "worker":
		err = runWorker(ctx, a.logger, a.consumer)

	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", *mode)
	}

	if err != nil {
		return err
	}

	log.Println("[app] Завершение работы...")

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		log.Printf("[app] ошибка при завершении: %v", closeErr)
	}

	log.Println("[app] Завершено корректно.")
	return nil
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	if closer, ok := a.consumer.(interface{ Close() }); ok {
		closer.Close()
	}

	if a.cacheCloser != nil {
		if err := a.cacheCloser(); err != nil {
			log.Printf("[app] ошибка закрытия кеша: %v", err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("ошибка закрытия БД: %w", err)
		}
	}

	return nil
}
