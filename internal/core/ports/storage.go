package ports

import (
	"context"

	"github.com/GoArmGo/UserApp/internal/domain"
	"github.com/google/uuid"
)

// UserStorage определяет методы для взаимодействия с хранилищем пользователей.
// Методы Get* возвращают (nil, nil), если запись не найдена: решение о том,
// является ли отсутствие ошибкой, принимает слой usecase.
type UserStorage interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// CreateUser сохраняет нового пользователя. ID и DateRegistered
	// присваиваются здесь, если не заданы. Нарушение уникальности
	// username/email возвращается как domain.ErrUserExists.
	CreateUser(ctx context.Context, user *domain.User) error

	// UpdateUser перезаписывает существующую запись целиком.
	// Нарушение уникальности возвращается как domain.ErrUserExists.
	UpdateUser(ctx context.Context, user *domain.User) error

	DeleteUser(ctx context.Context, id uuid.UUID) error
}
