// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrAuthFailure — вход не выполнен или сессия недействительна.
	ErrAuthFailure = errors.New("ошибка аутентификации")
	// ErrPermissionDenied — у пользователя нет нужного разрешения.
	ErrPermissionDenied = errors.New("недостаточно прав")
	// ErrNotFound — товар не найден.
	ErrNotFound = errors.New("товар не найден")
	// ErrUnavailable — хранилище или API каталога недоступны.
	ErrUnavailable = errors.New("сервис каталога недоступен")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
)
