package domain

import "errors"

// Ошибки уровня домена. Проверяются через errors.Is на границе HTTP,
// где превращаются в клиентские ответы 400.
var (
	// ErrUserNotFound возвращается, когда пользователь с данным ID не существует
	ErrUserNotFound = errors.New("пользователь не найден")

	// ErrUserExists возвращается при нарушении уникальности username или email.
	// Возникает как из предварительной проверки, так и из constraint-ошибки БД
	// при конкурентной вставке
	ErrUserExists = errors.New("имя пользователя или e-mail уже существует")
)
