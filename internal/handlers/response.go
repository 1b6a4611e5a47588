package handlers

import (
	"encoding/json"
	"net/http"

	"timeTracker/internal/logger"
)

type Payload struct {
	Key     string
	Payload any
}

func toPayload(key string, pl any) Payload {
	return Payload{Key: key, Payload: pl}
}

func responseWithJSON(w http.ResponseWriter, code int, payload ...Payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	storage := make(map[string]any, len(payload))
	for _, pl := range payload {
		storage[pl.Key] = pl.Payload
	}
	if err := json.NewEncoder(w).Encode(storage); err != nil {
		logger.Error("HTTP: Ошибка записи ответа", err)
	}
}

func responseWithError(w http.ResponseWriter, code int, message string) {
	responseWithJSON(w, code, toPayload("error", message))
}
