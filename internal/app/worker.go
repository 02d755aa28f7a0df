package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/GoArmGo/UserApp/internal/core/ports"
)

// runWorker запускает только потребителя уведомлений, без HTTP сервера.
// Полезно, когда логирование событий выносится в отдельный процесс
func runWorker(
	ctx context.Context,
	logger *slog.Logger,
	consumer ports.UserEventConsumer,
) error {
	log.Println("Воркер запущен. Ожидание сообщений в очереди RabbitMQ...")

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Запускаем потребление сообщений
	err := consumer.StartConsumingUserEvents(workerCtx, userEventLogger(logger))
	if err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}

	// Graceful Shutdown для воркера
	<-ctx.Done()

	log.Println("Worker: Получен сигнал завершения. Завершаем работу воркера...")

	cancelWorker()

	time.Sleep(2 * time.Second) // Небольшая задержка, чтобы логи успели выйти
	log.Println("Worker: Воркер успешно завершил работу.")

	return nil
}
