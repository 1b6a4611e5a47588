package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"timeTracker/internal/logger"
	"timeTracker/internal/middleware"

	"go.uber.org/zap"
)

const eventsBuffer = 32

// Events отдаёт сигналы контроллера потоком server-sent events
func (h *TaskHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		responseWithError(w, http.StatusInternalServerError, "поток событий не поддерживается")
		return
	}

	requestId := middleware.GetRequestID(r.Context())
	ch, unsubscribe := h.events.Subscribe(eventsBuffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger.Info("HTTP: Подписка на события", zap.String("request_id", requestId))

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Info("HTTP: Подписчик отключился", zap.String("request_id", requestId))
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				logger.Error("HTTP: Ошибка сериализации события", err, zap.String("kind", string(e.Kind)))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
