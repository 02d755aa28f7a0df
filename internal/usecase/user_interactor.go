package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/UserApp/internal/core/ports"
	"github.com/GoArmGo/UserApp/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// userUseCase implements UserUseCase
type userUseCase struct {
	userStorage ports.UserStorage
	userCache   ports.UserCache
	publisher   ports.UserEventPublisher
	logger      *slog.Logger
}

// NewUserUseCase создает новый экземпляр UserUseCase
// принимает реализации портов UserStorage, UserCache и UserEventPublisher
func NewUserUseCase(
	userStorage ports.UserStorage,
	userCache ports.UserCache,
	publisher ports.UserEventPublisher,
	logger *slog.Logger,
) UserUseCase {
	return &userUseCase{
		userStorage: userStorage,
		userCache:   userCache,
		publisher:   publisher,
		logger:      logger,
	}
}

// ListUsers возвращает всех пользователей по схеме cache-aside
func (uc *userUseCase) ListUsers(ctx context.Context) ([]domain.User, error) {
	cached, err := uc.userCache.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при чтении кеша пользователей: %w", err)
	}
	if cached != nil {
		// Попадание в кеш: бд не опрашивается
		uc.logger.Debug("list users served from cache", "count", len(cached))
		return cached, nil
	}

	users, err := uc.userStorage.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении пользователей из БД: %w", err)
	}
	if users == nil {
		// nil сериализовался бы в "null", и пустой список
		// выглядел бы в кеше как вечный промах
		users = []domain.User{}
	}

	if err := uc.userCache.SetUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при заполнении кеша пользователей: %w", err)
	}

	uc.logger.Debug("list users served from store", "count", len(users))
	return users, nil
}

// GetUserByID возвращает пользователя по ID напрямую из бд
func (uc *userUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := uc.userStorage.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении пользователя по ID %s: %w", id, err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// CreateUser создает нового пользователя.
// Порядок побочных эффектов: запись в бд -> инвалидация кеша -> уведомление.
// Проверки занятости username/email — лишь ранний выход: при конкурентной
// вставке настоящим барьером служит unique constraint, и хранилище
// возвращает тот же domain.ErrUserExists
func (uc *userUseCase) CreateUser(ctx context.Context, params CreateUserParams) (string, error) {
	existing, err := uc.userStorage.GetUserByUsername(ctx, params.Username)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка при проверке занятости имени пользователя: %w", err)
	}
	if existing == nil {
		existing, err = uc.userStorage.GetUserByEmail(ctx, params.Email)
		if err != nil {
			return "", fmt.Errorf("usecase: ошибка при проверке занятости e-mail: %w", err)
		}
	}
	if existing != nil {
		return "", domain.ErrUserExists
	}

	// Хеширование делается здесь явно, а не скрытым хуком в сущности:
	// в хранилище открытый пароль не попадает никогда
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка хеширования пароля: %w", err)
	}

	isActive := true
	if params.IsActive != nil {
		isActive = *params.IsActive
	}

	user := domain.User{
		Username:     params.Username,
		PasswordHash: string(hash),
		Email:        params.Email,
		FullName:     params.FullName,
		IsActive:     isActive,
	}

	if err := uc.userStorage.CreateUser(ctx, &user); err != nil {
		if err == domain.ErrUserExists {
			return "", err
		}
		return "", fmt.Errorf("usecase: ошибка при создании пользователя %s: %w", params.Username, err)
	}

	if err := uc.userCache.Invalidate(ctx); err != nil {
		return "", fmt.Errorf("usecase: ошибка при инвалидации кеша после создания: %w", err)
	}

	uc.notify(ctx, fmt.Sprintf("Пользователь создан: %s", params.Username))

	uc.logger.Info("user created", "user_id", user.ID, "username", user.Username)
	return fmt.Sprintf("Пользователь %s успешно создан", params.Username), nil
}

// UpdateUser частично обновляет пользователя: меняются только переданные поля
func (uc *userUseCase) UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (string, error) {
	user, err := uc.userStorage.GetUserByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка при получении пользователя по ID %s: %w", id, err)
	}
	if user == nil {
		return "", domain.ErrUserNotFound
	}

	priorUsername := user.Username

	// Пустая строка трактуется как отсутствие значения, как и nil:
	// username, email, fullName и пароль непустые по инварианту,
	// и затереть их пустым частичным обновлением нельзя
	if params.Username != nil && *params.Username != "" {
		user.Username = *params.Username
	}
	if params.Email != nil && *params.Email != "" {
		user.Email = *params.Email
	}
	if params.FullName != nil && *params.FullName != "" {
		user.FullName = *params.FullName
	}
	if params.DateRegistered != nil {
		user.DateRegistered = *params.DateRegistered
	}
	if params.IsActive != nil {
		user.IsActive = *params.IsActive
	}
	if params.Password != nil && *params.Password != "" {
		// Если прислан тот же пароль, хеш не трогаем:
		// перехеширование на повторной отправке той же формы не нужно
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*params.Password)) != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), bcrypt.DefaultCost)
			if err != nil {
				return "", fmt.Errorf("usecase: ошибка хеширования пароля: %w", err)
			}
			user.PasswordHash = string(hash)
		}
	}

	if err := uc.userStorage.UpdateUser(ctx, user); err != nil {
		if err == domain.ErrUserExists {
			return "", err
		}
		return "", fmt.Errorf("usecase: ошибка при обновлении пользователя %s: %w", id, err)
	}

	if err := uc.userCache.Invalidate(ctx); err != nil {
		return "", fmt.Errorf("usecase: ошибка при инвалидации кеша после обновления: %w", err)
	}

	// В уведомлении — новое имя, а если имя в этом обновлении не менялось, прежнее
	notifiedName := priorUsername
	if params.Username != nil && *params.Username != "" {
		notifiedName = *params.Username
	}
	uc.notify(ctx, fmt.Sprintf("Пользователь обновлен: %s", notifiedName))

	uc.logger.Info("user updated", "user_id", id, "username", notifiedName)
	return fmt.Sprintf("Пользователь %s успешно обновлен", notifiedName), nil
}

// DeleteUser удаляет пользователя по ID (жесткое удаление)
func (uc *userUseCase) DeleteUser(ctx context.Context, id uuid.UUID) (string, error) {
	user, err := uc.userStorage.GetUserByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка при получении пользователя по ID %s: %w", id, err)
	}
	if user == nil {
		return "", domain.ErrUserNotFound
	}

	if err := uc.userStorage.DeleteUser(ctx, id); err != nil {
		return "", fmt.Errorf("usecase: ошибка при удалении пользователя %s: %w", id, err)
	}

	if err := uc.userCache.Invalidate(ctx); err != nil {
		return "", fmt.Errorf("usecase: ошибка при инвалидации кеша после удаления: %w", err)
	}

	uc.notify(ctx, fmt.Sprintf("Пользователь удален: %s", id))

	uc.logger.Info("user deleted", "user_id", id)
	return fmt.Sprintf("Пользователь с ID %s удален", id), nil
}

// notify публикует уведомление о мутации по принципу best-effort:
// ошибка публикации логируется и сознательно отбрасывается, успех
// основной операции от доставки уведомления не зависит
func (uc *userUseCase) notify(ctx context.Context, message string) {
	if err := uc.publisher.PublishUserEvent(ctx, message); err != nil {
		uc.logger.Error("failed to publish user event", "message", message, "error", err)
	}
}
