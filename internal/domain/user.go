package domain

import (
	"time"

	"github.com/google/uuid"
)

// User представляет модель пользователя в системе.
// Соответствует таблице 'users' в базе данных.
// PasswordHash никогда не попадает в JSON-ответы (json:"-"),
// в бд хранится только bcrypt-хеш, а не исходный пароль.
type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	Email          string    `json:"email" db:"email"`
	FullName       string    `json:"fullName" db:"full_name"`
	DateRegistered time.Time `json:"dateRegistered" db:"date_registered"`
	IsActive       bool      `json:"isActive" db:"is_active"`
}

func (User) TableName() string {
	return "users"
}
