package service

import (
	"context"
	"fmt"
	"time"

	"timeTracker/internal/models/task"

	"github.com/google/uuid"
)

type CommandType string

const (
	CommandCreate     CommandType = "create"
	CommandStart      CommandType = "start"
	CommandStop       CommandType = "stop"
	CommandResume     CommandType = "resume"
	CommandDelete     CommandType = "delete"
	CommandUpdate     CommandType = "update"
	CommandToggleLast CommandType = "toggle_last"
)

// Command - одна команда контроллеру; используются только поля своего типа
type Command struct {
	Type       CommandType
	TaskID     uuid.UUID
	Create     CreateParams
	Resume     ResumeParams
	StopOthers bool
	EndTime    time.Time
	Options    []task.TaskOption
}

type commandHandler func(ctx context.Context, cmd Command) (*task.Task, error)

func (s *TaskService) commandTable() map[CommandType]commandHandler {
	return map[CommandType]commandHandler{
		CommandCreate: func(ctx context.Context, cmd Command) (*task.Task, error) {
			return s.Create(ctx, cmd.Create)
		},
		CommandStart: func(ctx context.Context, cmd Command) (*task.Task, error) {
			return s.Start(ctx, cmd.TaskID, cmd.StopOthers)
		},
		CommandStop: func(ctx context.Context, cmd Command) (*task.Task, error) {
			return s.Stop(ctx, cmd.TaskID, cmd.EndTime)
		},
		CommandResume: func(ctx context.Context, cmd Command) (*task.Task, error) {
			return s.Resume(ctx, cmd.TaskID, cmd.Resume)
		},
		CommandDelete: func(ctx context.Context, cmd Command) (*task.Task, error) {
			return nil, s.Delete(ctx, cmd.TaskID)
		},
		CommandUpdate: func(ctx context.Context, cmd Command) (*task.Task, error) {
			return s.Update(ctx, cmd.TaskID, cmd.Options...)
		},
		CommandToggleLast: func(ctx context.Context, cmd Command) (*task.Task, error) {
			return s.ToggleLastRunning(ctx, cmd.Resume)
		},
	}
}

// Dispatch направляет команду её обработчику
func (s *TaskService) Dispatch(ctx context.Context, cmd Command) (*task.Task, error) {
	handler, ok := s.handlers[cmd.Type]
	if !ok {
		return nil, NewValidationError("type", fmt.Sprintf("неизвестная команда %q", cmd.Type))
	}
	return handler(ctx, cmd)
}
