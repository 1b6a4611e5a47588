package handlers

import (
	"errors"
	"net/http"

	"timeTracker/internal/logger"
	"timeTracker/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)
	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

// handleServiceError отвечает бизнес-ошибкой либо 500
func handleServiceError(w http.ResponseWriter, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}
	logger.Error("HTTP: Ошибка Service", err, zap.String("operation", operation))
	responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeInvalidTransition:
		return http.StatusConflict
	case service.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
