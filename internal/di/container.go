package di

import (
	"log"

	"github.com/GoArmGo/UserApp/internal/app"
	"github.com/GoArmGo/UserApp/internal/cache/redis"
	"github.com/GoArmGo/UserApp/internal/config"
	"github.com/GoArmGo/UserApp/internal/database/postgres"
	"github.com/GoArmGo/UserApp/internal/database/storage"
	"github.com/GoArmGo/UserApp/internal/logger"
	"github.com/GoArmGo/UserApp/internal/rabbitmq"
	"github.com/GoArmGo/UserApp/internal/usecase"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
// Клиенты бд, кеша и брокера создаются один раз на процесс и закрываются
// при его остановке; постоянное соединение продюсер не держит (см. rabbitmq.Publisher)
func BuildApp() (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogCfg := logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}
	slogger := logger.NewSlog(slogCfg)

	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// 2. Инициализация PostgreSQL клиента (с миграциями)
	dbClient, err := postgres.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	// 3. Инициализация хранилища пользователей
	userStorage := storage.NewUserStorage(dbClient.Gorm, slogger)

	// 4. Инициализация кеша
	userCache, err := redis.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}

	// 5. Инициализация продюсера и консюмера уведомлений
	publisher := rabbitmq.NewPublisher(cfg)

	consumer, err := rabbitmq.NewConsumer(cfg)
	if err != nil {
		return nil, err
	}

	// 6. Инициализация бизнес-логики (usecase)
	userUseCase := usecase.NewUserUseCase(userStorage, userCache, publisher, slogger)

	// 7. Сборка итогового приложения
	application := app.NewApp(
		cfg,
		slogger,
		dbClient.DB,
		userUseCase,
		consumer,
		userCache.Close,
	)

	log.Println("[container] Все зависимости успешно инициализированы.")
	return application, nil
}
