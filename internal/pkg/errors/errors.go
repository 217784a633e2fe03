package errors

import "errors"

// Общие ошибки приложения. Транспортный слой отображает их в HTTP-коды,
// сервисы возвращают их обернутыми через fmt.Errorf("%w").
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия
	// (например, не-создатель пытается запустить викторину).
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState используется, когда операция осмысленна, но текущее
	// состояние объекта её запрещает (например, submit вне IN_PROGRESS).
	ErrInvalidState = errors.New("invalid state for this operation")

	// ErrConflict используется для конфликтов уникальности и конкурентных мутаций
	// (повторный ответ на вопрос, одновременный Start).
	ErrConflict = errors.New("resource state conflict")

	// ErrInternal используется для неожиданных ошибок хранилища/инфраструктуры.
	ErrInternal = errors.New("internal error")
)
