package usecase

import (
	"context"
	"time"

	"github.com/GoArmGo/UserApp/internal/domain"
	"github.com/google/uuid"
)

// CreateUserParams содержит данные для создания пользователя.
// Password приходит открытым текстом и хешируется в интеракторе
// до обращения к хранилищу
type CreateUserParams struct {
	Username string
	Password string
	Email    string
	FullName string
	// IsActive опционален, по умолчанию true
	IsActive *bool
}

// UpdateUserParams содержит данные для частичного обновления пользователя.
// nil означает "поле не менять"
type UpdateUserParams struct {
	Username       *string
	Password       *string
	Email          *string
	FullName       *string
	DateRegistered *time.Time
	IsActive       *bool
}

// UserUseCase определяет интерфейс бизнес-логики работы с пользователями.
// Оркестрирует хранилище, кеш и канал уведомлений: каждая мутация
// сначала пишет в бд, затем инвалидирует кеш, затем публикует уведомление
type UserUseCase interface {
	// ListUsers возвращает всех пользователей по схеме cache-aside:
	// при попадании в кеш бд не опрашивается, при промахе результат
	// запроса кладется в кеш с TTL
	ListUsers(ctx context.Context) ([]domain.User, error)

	// GetUserByID возвращает пользователя по ID напрямую из бд (мимо кеша).
	// Возвращает domain.ErrUserNotFound, если записи нет
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// CreateUser создает пользователя и возвращает текст подтверждения.
	// Возвращает domain.ErrUserExists при занятом username или email
	CreateUser(ctx context.Context, params CreateUserParams) (string, error)

	// UpdateUser частично обновляет пользователя и возвращает текст подтверждения
	UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (string, error)

	// DeleteUser удаляет пользователя и возвращает текст подтверждения
	DeleteUser(ctx context.Context, id uuid.UUID) (string, error)
}
