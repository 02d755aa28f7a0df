package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/GoArmGo/UserApp/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserStorage struct {
	listOut   []domain.User
	listErr   error
	listCalls int

	byID       *domain.User
	byUsername *domain.User
	byEmail    *domain.User
	getErr     error

	created   *domain.User
	createErr error

	updated   *domain.User
	updateErr error

	deletedID uuid.UUID
	deleteErr error
}

func (f *fakeUserStorage) ListUsers(ctx context.Context) ([]domain.User, error) {
	f.listCalls++
	return f.listOut, f.listErr
}

func (f *fakeUserStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.byID == nil {
		return nil, nil
	}
	u := *f.byID // копия, чтобы мутации в usecase не трогали состояние фейка
	return &u, nil
}

func (f *fakeUserStorage) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.byUsername == nil || f.byUsername.Username != username {
		return nil, nil
	}
	u := *f.byUsername
	return &u, nil
}

func (f *fakeUserStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.byEmail == nil || f.byEmail.Email != email {
		return nil, nil
	}
	u := *f.byEmail
	return &u, nil
}

func (f *fakeUserStorage) CreateUser(ctx context.Context, user *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.DateRegistered.IsZero() {
		user.DateRegistered = time.Now()
	}
	u := *user
	f.created = &u
	return nil
}

func (f *fakeUserStorage) UpdateUser(ctx context.Context, user *domain.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	u := *user
	f.updated = &u
	return nil
}

func (f *fakeUserStorage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = id
	return nil
}

type fakeUserCache struct {
	cached []domain.User
	getErr error

	setIn    []domain.User
	setCalls int
	setErr   error

	invalidations int
	invalidateErr error
}

func (f *fakeUserCache) GetUsers(ctx context.Context) ([]domain.User, error) {
	return f.cached, f.getErr
}

func (f *fakeUserCache) SetUsers(ctx context.Context, users []domain.User) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls++
	f.setIn = users
	return nil
}

func (f *fakeUserCache) Invalidate(ctx context.Context) error {
	if f.invalidateErr != nil {
		return f.invalidateErr
	}
	f.invalidations++
	return nil
}

type fakePublisher struct {
	messages []string
	err      error
}

func (f *fakePublisher) PublishUserEvent(ctx context.Context, message string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

func newTestUseCase(storage *fakeUserStorage, cache *fakeUserCache, pub *fakePublisher) UserUseCase {
	return NewUserUseCase(storage, cache, pub, testLogger())
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

// --- ListUsers ---

func TestListUsers_CacheHit(t *testing.T) {
	cachedUsers := []domain.User{{ID: uuid.New(), Username: "cached"}}
	storage := &fakeUserStorage{listOut: []domain.User{{Username: "fresh"}}}
	cache := &fakeUserCache{cached: cachedUsers}
	uc := newTestUseCase(storage, cache, &fakePublisher{})

	users, err := uc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cachedUsers, users)
	// при попадании в кеш БД не опрашивается
	assert.Zero(t, storage.listCalls)
}

func TestListUsers_CacheMissPopulatesCache(t *testing.T) {
	fresh := []domain.User{{ID: uuid.New(), Username: "fresh"}}
	storage := &fakeUserStorage{listOut: fresh}
	cache := &fakeUserCache{}
	uc := newTestUseCase(storage, cache, &fakePublisher{})

	users, err := uc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, users)
	assert.Equal(t, 1, storage.listCalls)
	assert.Equal(t, 1, cache.setCalls)
	assert.Equal(t, fresh, cache.setIn)
}

// Пустая таблица должна кешироваться как пустой список, а не nil:
// иначе кеш хранил бы "null" и каждый запрос выглядел бы промахом
func TestListUsers_EmptyStoreCachesEmptySlice(t *testing.T) {
	storage := &fakeUserStorage{listOut: nil}
	cache := &fakeUserCache{}
	uc := newTestUseCase(storage, cache, &fakePublisher{})

	users, err := uc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	assert.Equal(t, 1, cache.setCalls)
	assert.NotNil(t, cache.setIn)
	assert.Empty(t, cache.setIn)
}

func TestListUsers_CacheUnavailable(t *testing.T) {
	storage := &fakeUserStorage{}
	cache := &fakeUserCache{getErr: errors.New("connection refused")}
	uc := newTestUseCase(storage, cache, &fakePublisher{})

	_, err := uc.ListUsers(context.Background())
	require.Error(t, err)
}

// --- GetUserByID ---

func TestGetUserByID(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Username: "joaosilva"}
	uc := newTestUseCase(&fakeUserStorage{byID: user}, &fakeUserCache{}, &fakePublisher{})

	got, err := uc.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, got.Username)
}

func TestGetUserByID_NotFound(t *testing.T) {
	uc := newTestUseCase(&fakeUserStorage{}, &fakeUserCache{}, &fakePublisher{})

	_, err := uc.GetUserByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

// --- CreateUser ---

func TestCreateUser_Success(t *testing.T) {
	storage := &fakeUserStorage{}
	cache := &fakeUserCache{}
	pub := &fakePublisher{}
	uc := newTestUseCase(storage, cache, pub)

	confirmation, err := uc.CreateUser(context.Background(), CreateUserParams{
		Username: "joaosilva",
		Password: "pw1",
		Email:    "j@example.com",
		FullName: "João Silva",
	})
	require.NoError(t, err)
	assert.Contains(t, confirmation, "joaosilva")

	require.NotNil(t, storage.created)
	assert.Equal(t, "joaosilva", storage.created.Username)
	assert.True(t, storage.created.IsActive, "isActive по умолчанию true")
	assert.NotEqual(t, uuid.Nil, storage.created.ID)

	// в хранилище попал bcrypt-хеш, а не открытый пароль
	assert.NotEqual(t, "pw1", storage.created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storage.created.PasswordHash), []byte("pw1")))

	assert.Equal(t, 1, cache.invalidations)
	require.Len(t, pub.messages, 1)
	assert.Contains(t, pub.messages[0], "joaosilva")
}

func TestCreateUser_ExplicitInactive(t *testing.T) {
	storage := &fakeUserStorage{}
	uc := newTestUseCase(storage, &fakeUserCache{}, &fakePublisher{})

	_, err := uc.CreateUser(context.Background(), CreateUserParams{
		Username: "joaosilva",
		Password: "pw1",
		Email:    "j@example.com",
		FullName: "João Silva",
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, storage.created.IsActive)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	storage := &fakeUserStorage{
		byUsername: &domain.User{Username: "joaosilva"},
	}
	cache := &fakeUserCache{}
	pub := &fakePublisher{}
	uc := newTestUseCase(storage, cache, pub)

	_, err := uc.CreateUser(context.Background(), CreateUserParams{
		Username: "joaosilva",
		Password: "pw2",
		Email:    "other@example.com",
		FullName: "Outro",
	})
	require.ErrorIs(t, err, domain.ErrUserExists)
	assert.Nil(t, storage.created)
	assert.Zero(t, cache.invalidations)
	assert.Empty(t, pub.messages)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	storage := &fakeUserStorage{
		byEmail: &domain.User{Username: "someone", Email: "j@example.com"},
	}
	uc := newTestUseCase(storage, &fakeUserCache{}, &fakePublisher{})

	_, err := uc.CreateUser(context.Background(), CreateUserParams{
		Username: "joaosilva",
		Password: "pw1",
		Email:    "j@example.com",
		FullName: "João Silva",
	})
	require.ErrorIs(t, err, domain.ErrUserExists)
	assert.Nil(t, storage.created)
}

// Конкурентная вставка: предварительные проверки прошли, но constraint
// в бд сработал. Ошибка должна схлопнуться в тот же ErrUserExists
func TestCreateUser_ConstraintRace(t *testing.T) {
	storage := &fakeUserStorage{createErr: domain.ErrUserExists}
	uc := newTestUseCase(storage, &fakeUserCache{}, &fakePublisher{})

	_, err := uc.CreateUser(context.Background(), CreateUserParams{
		Username: "joaosilva",
		Password: "pw1",
		Email:    "j@example.com",
		FullName: "João Silva",
	})
	require.ErrorIs(t, err, domain.ErrUserExists)
}

// Отказ публикации не должен влиять на исход уже записанной мутации
func TestCreateUser_PublishFailureIsSwallowed(t *testing.T) {
	storage := &fakeUserStorage{}
	cache := &fakeUserCache{}
	pub := &fakePublisher{err: errors.New("broker down")}
	uc := newTestUseCase(storage, cache, pub)

	confirmation, err := uc.CreateUser(context.Background(), CreateUserParams{
		Username: "joaosilva",
		Password: "pw1",
		Email:    "j@example.com",
		FullName: "João Silva",
	})
	require.NoError(t, err)
	assert.Contains(t, confirmation, "joaosilva")
	assert.NotNil(t, storage.created)
	assert.Equal(t, 1, cache.invalidations)
}

func TestCreateUser_CacheInvalidationFailurePropagates(t *testing.T) {
	storage := &fakeUserStorage{}
	cache := &fakeUserCache{invalidateErr: errors.New("connection refused")}
	uc := newTestUseCase(storage, cache, &fakePublisher{})

	_, err := uc.CreateUser(context.Background(), CreateUserParams{
		Username: "joaosilva",
		Password: "pw1",
		Email:    "j@example.com",
		FullName: "João Silva",
	})
	require.Error(t, err)
	// запись уже сделана, откат не выполняется
	assert.NotNil(t, storage.created)
}

// --- UpdateUser ---

func existingUser(t *testing.T) *domain.User {
	return &domain.User{
		ID:             uuid.New(),
		Username:       "joaosilva",
		PasswordHash:   hashOf(t, "pw1"),
		Email:          "j@example.com",
		FullName:       "João Silva",
		DateRegistered: time.Date(2024, 7, 23, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	uc := newTestUseCase(&fakeUserStorage{}, &fakeUserCache{}, &fakePublisher{})

	_, err := uc.UpdateUser(context.Background(), uuid.New(), UpdateUserParams{
		FullName: strPtr("Novo Nome"),
	})
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateUser_PartialFields(t *testing.T) {
	user := existingUser(t)
	storage := &fakeUserStorage{byID: user}
	cache := &fakeUserCache{}
	uc := newTestUseCase(storage, cache, &fakePublisher{})

	confirmation, err := uc.UpdateUser(context.Background(), user.ID, UpdateUserParams{
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Contains(t, confirmation, "joaosilva")

	require.NotNil(t, storage.updated)
	assert.False(t, storage.updated.IsActive)
	// не переданные поля остаются прежними
	assert.Equal(t, user.Username, storage.updated.Username)
	assert.Equal(t, user.Email, storage.updated.Email)
	assert.Equal(t, user.FullName, storage.updated.FullName)
	assert.Equal(t, user.PasswordHash, storage.updated.PasswordHash)
	assert.Equal(t, user.DateRegistered, storage.updated.DateRegistered)

	assert.Equal(t, 1, cache.invalidations)
}

// Пустые строки в частичном обновлении — то же, что отсутствие поля:
// непустые по инварианту поля нельзя затереть телом вида {"username": ""}
func TestUpdateUser_EmptyStringsTreatedAsAbsent(t *testing.T) {
	user := existingUser(t)
	storage := &fakeUserStorage{byID: user}
	pub := &fakePublisher{}
	uc := newTestUseCase(storage, &fakeUserCache{}, pub)

	_, err := uc.UpdateUser(context.Background(), user.ID, UpdateUserParams{
		Username: strPtr(""),
		Email:    strPtr(""),
		FullName: strPtr(""),
		Password: strPtr(""),
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)

	require.NotNil(t, storage.updated)
	assert.Equal(t, user.Username, storage.updated.Username)
	assert.Equal(t, user.Email, storage.updated.Email)
	assert.Equal(t, user.FullName, storage.updated.FullName)
	assert.Equal(t, user.PasswordHash, storage.updated.PasswordHash)
	// непустые поля того же запроса при этом применяются
	assert.False(t, storage.updated.IsActive)

	// в уведомлении остается прежнее имя
	require.Len(t, pub.messages, 1)
	assert.Contains(t, pub.messages[0], user.Username)
}

func TestUpdateUser_SamePasswordKeepsHash(t *testing.T) {
	user := existingUser(t)
	storage := &fakeUserStorage{byID: user}
	uc := newTestUseCase(storage, &fakeUserCache{}, &fakePublisher{})

	_, err := uc.UpdateUser(context.Background(), user.ID, UpdateUserParams{
		Password: strPtr("pw1"),
	})
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, storage.updated.PasswordHash, "повторная отправка того же пароля не перехеширует")
}

func TestUpdateUser_NewPasswordRehashed(t *testing.T) {
	user := existingUser(t)
	storage := &fakeUserStorage{byID: user}
	uc := newTestUseCase(storage, &fakeUserCache{}, &fakePublisher{})

	_, err := uc.UpdateUser(context.Background(), user.ID, UpdateUserParams{
		Password: strPtr("pw2"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, user.PasswordHash, storage.updated.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storage.updated.PasswordHash), []byte("pw2")))
}

func TestUpdateUser_NotificationNamesNewUsername(t *testing.T) {
	user := existingUser(t)
	pub := &fakePublisher{}
	uc := newTestUseCase(&fakeUserStorage{byID: user}, &fakeUserCache{}, pub)

	_, err := uc.UpdateUser(context.Background(), user.ID, UpdateUserParams{
		Username: strPtr("novonome"),
	})
	require.NoError(t, err)
	require.Len(t, pub.messages, 1)
	assert.Contains(t, pub.messages[0], "novonome")
}

func TestUpdateUser_NotificationNamesPriorUsername(t *testing.T) {
	user := existingUser(t)
	pub := &fakePublisher{}
	uc := newTestUseCase(&fakeUserStorage{byID: user}, &fakeUserCache{}, pub)

	_, err := uc.UpdateUser(context.Background(), user.ID, UpdateUserParams{
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	require.Len(t, pub.messages, 1)
	assert.Contains(t, pub.messages[0], "joaosilva")
}

func TestUpdateUser_UsernameConflict(t *testing.T) {
	user := existingUser(t)
	storage := &fakeUserStorage{byID: user, updateErr: domain.ErrUserExists}
	uc := newTestUseCase(storage, &fakeUserCache{}, &fakePublisher{})

	_, err := uc.UpdateUser(context.Background(), user.ID, UpdateUserParams{
		Username: strPtr("taken"),
	})
	require.ErrorIs(t, err, domain.ErrUserExists)
}

// --- DeleteUser ---

func TestDeleteUser_Success(t *testing.T) {
	user := existingUser(t)
	storage := &fakeUserStorage{byID: user}
	cache := &fakeUserCache{}
	pub := &fakePublisher{}
	uc := newTestUseCase(storage, cache, pub)

	confirmation, err := uc.DeleteUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Contains(t, confirmation, user.ID.String())

	assert.Equal(t, user.ID, storage.deletedID)
	assert.Equal(t, 1, cache.invalidations)
	require.Len(t, pub.messages, 1)
	assert.Contains(t, pub.messages[0], user.ID.String())
}

func TestDeleteUser_NotFound(t *testing.T) {
	storage := &fakeUserStorage{}
	cache := &fakeUserCache{}
	uc := newTestUseCase(storage, cache, &fakePublisher{})

	_, err := uc.DeleteUser(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, uuid.Nil, storage.deletedID, "несуществующий ID не приводит к удалению")
	assert.Zero(t, cache.invalidations)
}
