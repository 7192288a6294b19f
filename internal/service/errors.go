package service

import (
	"errors"
	"fmt"
)

// Результаты операций, которые граница (HTTP) переводит в редиректы и сообщения
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("resource is busy")
	ErrEmptyDraft         = errors.New("draft order is empty")
	ErrInvalidDraftItem   = errors.New("invalid draft item")
	ErrStaleDraftItem     = errors.New("draft item references a missing product")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already exists")
)

// ValidationError ошибка разбора пользовательского ввода; текст показывается пользователю как есть
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// StaleItemError строка черновика ссылается на товар, которого больше нет
type StaleItemError struct {
	ProductID int64
	Name      string
}

func (e *StaleItemError) Error() string {
	return fmt.Sprintf("product %q (id %d) no longer exists, remove it from the order", e.Name, e.ProductID)
}

func (e *StaleItemError) Unwrap() error {
	return ErrStaleDraftItem
}
