package service

import (
	"errors"
	"fmt"
)

const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource string, id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewInvalidTransition(id string, from string, action string) *BusinessError {
	return &BusinessError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("Задача %s в статусе '%s': действие '%s' недоступно", id, from, action),
		Details: map[string]any{
			"id":     id,
			"status": from,
			"action": action,
		},
	}
}

func NewStoreUnavailable(op string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeStoreUnavailable,
		Message: fmt.Sprintf("Хранилище недоступно: %s", op),
		Details: map[string]any{"operation": op},
		Err:     err,
	}
}

// storeError пропускает бизнес-ошибки как есть, остальное считает отказом хранилища
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr
	}
	return NewStoreUnavailable(op, err)
}

func IsCode(err error, code string) bool {
	var busErr *BusinessError
	return errors.As(err, &busErr) && busErr.Code == code
}
