package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/UserApp/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Код ошибки PostgreSQL unique_violation.
// Constraint в бд — настоящая точка защиты от дублей при конкурентных вставках,
// предварительные проверки в usecase лишь ранний выход.
const pgUniqueViolation = "23505"

// UserStorage реализует интерфейс ports.UserStorage с использованием GORM
type UserStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewUserStorage создает новый экземпляр UserStorage
func NewUserStorage(db *gorm.DB, logger *slog.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

// ListUsers возвращает всех пользователей из бд
func (s *UserStorage) ListUsers(ctx context.Context) ([]domain.User, error) {
	start := time.Now()

	var users []domain.User
	result := s.db.WithContext(ctx).Order("date_registered ASC").Find(&users)
	if result.Error != nil {
		s.logger.Error("failed to list users", "error", result.Error)
		return nil, fmt.Errorf("ошибка при получении списка пользователей из БД: %w", result.Error)
	}

	s.logger.Info("users listed",
		"count", len(users),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return users, nil
}

// GetUserByID получает пользователя по ID. Возвращает (nil, nil), если запись не найдена
func (s *UserStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	result := s.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении пользователя по ID из БД: %w", result.Error)
	}
	return &user, nil
}

// GetUserByUsername получает пользователя по имени. Возвращает (nil, nil), если запись не найдена
func (s *UserStorage) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	result := s.db.WithContext(ctx).Where("username = ?", username).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении пользователя по имени из БД: %w", result.Error)
	}
	return &user, nil
}

// GetUserByEmail получает пользователя по e-mail. Возвращает (nil, nil), если запись не найдена
func (s *UserStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	result := s.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении пользователя по e-mail из БД: %w", result.Error)
	}
	return &user, nil
}

// CreateUser сохраняет нового пользователя в бд.
// ID и DateRegistered присваиваются здесь, если вызывающий код их не задал
func (s *UserStorage) CreateUser(ctx context.Context, user *domain.User) error {
	start := time.Now()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.DateRegistered.IsZero() {
		user.DateRegistered = time.Now()
	}

	result := s.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			s.logger.Warn("unique constraint violated on insert", "username", user.Username)
			return domain.ErrUserExists
		}
		s.logger.Error("failed to insert user", "error", result.Error)
		return fmt.Errorf("ошибка при сохранении пользователя в БД: %w", result.Error)
	}

	s.logger.Info("user created",
		"user_id", user.ID,
		"username", user.Username,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// UpdateUser перезаписывает существующую запись пользователя
func (s *UserStorage) UpdateUser(ctx context.Context, user *domain.User) error {
	result := s.db.WithContext(ctx).Save(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			s.logger.Warn("unique constraint violated on update", "user_id", user.ID)
			return domain.ErrUserExists
		}
		s.logger.Error("failed to update user", "user_id", user.ID, "error", result.Error)
		return fmt.Errorf("ошибка при обновлении пользователя в БД: %w", result.Error)
	}
	return nil
}

// DeleteUser удаляет пользователя по ID (жесткое удаление, без tombstone)
func (s *UserStorage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if result.Error != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", result.Error)
		return fmt.Errorf("ошибка при удалении пользователя из БД: %w", result.Error)
	}
	return nil
}

// isUniqueViolation проверяет, является ли ошибка нарушением unique constraint
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
