package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"timeTracker/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodeJSON читает тело запроса. optional разрешает пустое тело.
// При ошибке ответ уже записан.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if r.ContentLength == 0 && optional {
		return true
	}

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return false
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return true
		}
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return false
	}
	return true
}

// parseID достаёт {id} из пути. При ошибке ответ уже записан.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		logger.Warn("HTTP: Неверный формат id",
			zap.String("id", idParam),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверный формат id")
		return uuid.Nil, false
	}
	return id, true
}
