package ports

import "context"

// UserEventPublisher определяет публикацию уведомлений об изменениях пользователей.
// Используется слоем usecase после каждой мутации
type UserEventPublisher interface {
	// PublishUserEvent публикует одно текстовое сообщение в топик уведомлений.
	// Вызывающий код сам решает, что делать с ошибкой: для уведомлений
	// принята политика best-effort, ошибка логируется и не прерывает запрос
	PublishUserEvent(ctx context.Context, message string) error
}

// UserEventConsumer определяет потребление уведомлений об изменениях пользователей.
// Подписка устанавливается один раз на старте процесса и живет до его остановки
type UserEventConsumer interface {
	// StartConsumingUserEvents начинает прослушивание топика
	// принимает функцию-обработчик, которая будет вызываться для каждого полученного сообщения
	StartConsumingUserEvents(ctx context.Context, handler func(context.Context, string) error) error
}
