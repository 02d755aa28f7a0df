package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/GoArmGo/UserApp/internal/domain"
	"github.com/GoArmGo/UserApp/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CreateUserRequest — тело POST /users
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	IsActive *bool  `json:"isActive,omitempty"`
}

// UpdateUserRequest — тело PUT /users/{id}.
// Все поля опциональны: nil означает "не менять"
type UpdateUserRequest struct {
	Username       *string    `json:"username,omitempty"`
	Password       *string    `json:"password,omitempty"`
	Email          *string    `json:"email,omitempty"`
	FullName       *string    `json:"fullName,omitempty"`
	DateRegistered *time.Time `json:"dateRegistered,omitempty"`
	IsActive       *bool      `json:"isActive,omitempty"`
}

// UserHandler — обработчик HTTP-запросов для работы с пользователями.
type UserHandler struct {
	userUseCase usecase.UserUseCase
	logger      *slog.Logger
}

// NewUserHandler создаёт новый экземпляр UserHandler.
func NewUserHandler(uc usecase.UserUseCase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: uc,
		logger:      logger,
	}
}

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError — отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"error": message}, logger)
}

// respondWithUseCaseError транслирует ошибки бизнес-логики в HTTP-статусы.
// NotFound и конфликт уникальности — ожидаемые клиентские ошибки (400),
// все остальное — инфраструктурные ошибки сервера (500)
func (h *UserHandler) respondWithUseCaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrUserExists):
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
	default:
		respondWithError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера", h.logger)
	}
}

// parseUserID извлекает и разбирает {id} из пути
func (h *UserHandler) parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("invalid user id parameter", "id", idStr, "error", err)
		respondWithError(w, http.StatusBadRequest, "Некорректный ID пользователя", h.logger)
		return uuid.Nil, false
	}
	return id, true
}

// ListUsers — возвращает всех пользователей.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userUseCase.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		h.respondWithUseCaseError(w, err)
		return
	}

	if users == nil {
		users = []domain.User{}
	}
	respondWithJSON(w, http.StatusOK, users, h.logger)
}

// GetUser — возвращает одного пользователя по ID.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	user, err := h.userUseCase.GetUserByID(r.Context(), id)
	if err != nil {
		h.logger.Warn("failed to get user", "user_id", id, "error", err)
		h.respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user, h.logger)
}

// CreateUser — создаёт нового пользователя.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", "error", err)
		respondWithError(w, http.StatusBadRequest, "Некорректное тело запроса", h.logger)
		return
	}

	if req.Username == "" || req.Password == "" || req.Email == "" || req.FullName == "" {
		respondWithError(w, http.StatusBadRequest, "Поля username, password, email и fullName обязательны", h.logger)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondWithError(w, http.StatusBadRequest, "Некорректный e-mail", h.logger)
		return
	}

	h.logger.Info("processing request", "endpoint", "CreateUser", "username", req.Username)

	confirmation, err := h.userUseCase.CreateUser(r.Context(), usecase.CreateUserParams{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.logger.Warn("failed to create user", "username", req.Username, "error", err)
		h.respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": confirmation}, h.logger)
}

// UpdateUser — частично обновляет пользователя по ID.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body", "error", err)
		respondWithError(w, http.StatusBadRequest, "Некорректное тело запроса", h.logger)
		return
	}

	// Пустая строка означает "поле не менять" и валидации не подлежит
	if req.Email != nil && *req.Email != "" {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			respondWithError(w, http.StatusBadRequest, "Некорректный e-mail", h.logger)
			return
		}
	}

	h.logger.Info("processing request", "endpoint", "UpdateUser", "user_id", id)

	confirmation, err := h.userUseCase.UpdateUser(r.Context(), id, usecase.UpdateUserParams{
		Username:       req.Username,
		Password:       req.Password,
		Email:          req.Email,
		FullName:       req.FullName,
		DateRegistered: req.DateRegistered,
		IsActive:       req.IsActive,
	})
	if err != nil {
		h.logger.Warn("failed to update user", "user_id", id, "error", err)
		h.respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": confirmation}, h.logger)
}

// DeleteUser — удаляет пользователя по ID.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	h.logger.Info("processing request", "endpoint", "DeleteUser", "user_id", id)

	confirmation, err := h.userUseCase.DeleteUser(r.Context(), id)
	if err != nil {
		h.logger.Warn("failed to delete user", "user_id", id, "error", err)
		h.respondWithUseCaseError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": confirmation}, h.logger)
}
