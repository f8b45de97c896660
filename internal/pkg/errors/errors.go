package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных
	// (нет студента, нет темы, неизвестный уровень сложности).
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния
	// (например, вопрос с таким content hash уже существует).
	ErrConflict = errors.New("resource state conflict")

	// ErrUnavailable используется, когда внешний сервис (генерация, Redis) недоступен
	// или вернул некорректный ответ.
	ErrUnavailable = errors.New("service unavailable")
)
