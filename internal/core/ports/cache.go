package ports

import (
	"context"

	"github.com/GoArmGo/UserApp/internal/domain"
)

// UserCache определяет методы кеша списка пользователей (cache-aside).
// Кеш хранит единственную запись: сериализованный снимок всех пользователей.
// Любая мутация инвалидирует запись целиком, а не по одному пользователю.
type UserCache interface {
	// GetUsers возвращает закешированный снимок или (nil, nil) при промахе
	GetUsers(ctx context.Context) ([]domain.User, error)

	// SetUsers кладет снимок в кеш с настроенным TTL
	SetUsers(ctx context.Context, users []domain.User) error

	// Invalidate удаляет запись кеша
	Invalidate(ctx context.Context) error
}
