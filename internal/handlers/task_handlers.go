package handlers

import (
	"context"
	"net/http"
	"time"

	"timeTracker/internal/events"
	"timeTracker/internal/handlers/dto"
	"timeTracker/internal/logger"
	"timeTracker/internal/models/task"
	"timeTracker/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	HealthCheck(ctx context.Context) error
	LoadList(ctx context.Context) (service.ListView, error)
	Dispatch(ctx context.Context, cmd service.Command) (*task.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*service.TaskDetails, error)
	AddNote(ctx context.Context, taskID uuid.UUID, text string) (*task.Note, error)
	AttachTag(ctx context.Context, taskID uuid.UUID, name string) (*task.Tag, error)
	ActivateToken(ctx context.Context, taskID uuid.UUID, token string) error
	Suggestions() []string
	OpenCurrent() (uuid.UUID, bool)
	Settings() service.Settings
	SetVisibility(ctx context.Context, params service.VisibilityParams) (service.Settings, error)
}

type Subscriber interface {
	Subscribe(buffer int) (<-chan events.Event, func())
}

type TaskHandler struct {
	service   Service
	events    Subscriber
	heartbeat time.Duration
}

func NewTaskHandler(taskService Service, subscriber Subscriber) *TaskHandler {
	return &TaskHandler{
		service:   taskService,
		events:    subscriber,
		heartbeat: 30 * time.Second,
	}
}

// Routes регистрирует маршруты API
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Get("/events", h.Events)

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.GetSettings)    // GET /settings
		r.Put("/", h.UpdateSettings) // PUT /settings
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.GetList)     // GET /tasks
		r.Post("/", h.CreateTask) // POST /tasks

		r.Get("/suggestions", h.GetSuggestions) // GET /tasks/suggestions
		r.Post("/toggle", h.ToggleLastRunning)  // POST /tasks/toggle
		r.Post("/current/open", h.OpenCurrent)  // POST /tasks/current/open

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTaskByID)       // GET /tasks/{id}
			r.Patch("/", h.UpdateTaskByID)  // PATCH /tasks/{id}
			r.Delete("/", h.DeleteTaskByID) // DELETE /tasks/{id}

			r.Post("/start", h.StartTask)      // POST /tasks/{id}/start
			r.Post("/stop", h.StopTask)        // POST /tasks/{id}/stop
			r.Post("/resume", h.ResumeTask)    // POST /tasks/{id}/resume
			r.Post("/notes", h.AddNote)        // POST /tasks/{id}/notes
			r.Post("/tags", h.AttachTag)       // POST /tasks/{id}/tags
			r.Post("/tokens", h.ActivateToken) // POST /tasks/{id}/tokens
		})
	})
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.HealthCheck(r.Context()); err != nil {
		handleServiceError(w, err, "health_check")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}

func (h *TaskHandler) GetList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	view, err := h.service.LoadList(r.Context())
	if err != nil {
		handleServiceError(w, err, "load_list")
		return
	}

	logger.Info("HTTP_OUT: Список задач получен",
		zap.Int("ongoing", view.Counts.Ongoing),
		zap.Int("queued", view.Counts.Queued),
		zap.Int("ranked", view.Counts.Ranked),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK, toPayload("list", dto.FromListView(view)))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}

	created, err := h.service.Dispatch(r.Context(), service.Command{
		Type:   service.CommandCreate,
		Create: request.Params(),
	})
	if err != nil {
		handleServiceError(w, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(created)))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	details, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		handleServiceError(w, err, "get_task")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromDetails(details)))
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}
	if request.Empty() {
		logger.Warn("HTTP: Пустое обновление", zap.String("task_id", id.String()))
		responseWithError(w, http.StatusBadRequest, "нет полей для обновления")
		return
	}

	h.command(w, r, service.Command{
		Type:    service.CommandUpdate,
		TaskID:  id,
		Options: request.Options(),
	})
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	h.command(w, r, service.Command{Type: service.CommandDelete, TaskID: id})
}

func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.StartRequest
	if !decodeJSON(w, r, &request, true) {
		return
	}
	h.command(w, r, service.Command{Type: service.CommandStart, TaskID: id, StopOthers: request.StopOthers})
}

func (h *TaskHandler) StopTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.StopRequest
	if !decodeJSON(w, r, &request, true) {
		return
	}

	cmd := service.Command{Type: service.CommandStop, TaskID: id}
	if request.EndedAt != nil {
		cmd.EndTime = *request.EndedAt
	}
	h.command(w, r, cmd)
}

func (h *TaskHandler) ResumeTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.ResumeRequest
	if !decodeJSON(w, r, &request, true) {
		return
	}
	h.command(w, r, service.Command{Type: service.CommandResume, TaskID: id, Resume: request.Params()})
}

func (h *TaskHandler) ToggleLastRunning(w http.ResponseWriter, r *http.Request) {
	var request dto.ResumeRequest
	if !decodeJSON(w, r, &request, true) {
		return
	}
	h.command(w, r, service.Command{Type: service.CommandToggleLast, Resume: request.Params()})
}

// command выполняет команду контроллера; пустой результат - 204
func (h *TaskHandler) command(w http.ResponseWriter, r *http.Request, cmd service.Command) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:", zap.String("command", string(cmd.Type)))

	result, err := h.service.Dispatch(r.Context(), cmd)
	if err != nil {
		handleServiceError(w, err, string(cmd.Type))
		return
	}

	if result == nil {
		logger.Info("HTTP_OUT: Команда без изменений",
			zap.String("command", string(cmd.Type)),
			zap.Duration("ms", time.Since(start)))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	logger.Info("HTTP_OUT: Команда выполнена",
		zap.String("command", string(cmd.Type)),
		zap.String("task_id", result.UUID.String()),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(result)))
}

func (h *TaskHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.NoteRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}

	note, err := h.service.AddNote(r.Context(), id, request.Text)
	if err != nil {
		handleServiceError(w, err, "add_note")
		return
	}
	responseWithJSON(w, http.StatusCreated, toPayload("note", note))
}

func (h *TaskHandler) AttachTag(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.TagRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}

	tag, err := h.service.AttachTag(r.Context(), id, request.Name)
	if err != nil {
		handleServiceError(w, err, "attach_tag")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tag", tag))
}

func (h *TaskHandler) ActivateToken(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.TokenRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}

	if err := h.service.ActivateToken(r.Context(), id, request.Token); err != nil {
		handleServiceError(w, err, "activate_token")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *TaskHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions := h.service.Suggestions()
	if suggestions == nil {
		suggestions = []string{}
	}
	responseWithJSON(w, http.StatusOK, toPayload("suggestions", suggestions))
}

func (h *TaskHandler) OpenCurrent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.service.OpenCurrent()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	responseWithJSON(w, http.StatusAccepted, toPayload("task_id", id))
}

func (h *TaskHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("settings", dto.FromSettings(h.service.Settings())))
}

func (h *TaskHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.SettingsRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}

	settings, err := h.service.SetVisibility(r.Context(), request.Params())
	if err != nil {
		handleServiceError(w, err, "set_visibility")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("settings", dto.FromSettings(settings)))
}
