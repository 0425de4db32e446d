package projectstatus

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "project-status"
)

type Engine interface {
	ProjectStatus(ctx context.Context, actor models.Actor, applicationID string) (*engine.Summary, error)
}

type Handler struct {
	engine Engine
	logger logger.Logger
}

func NewHandler(eng Engine, log logger.Logger) *Handler {
	return &Handler{
		engine: eng,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	summary, err := h.engine.ProjectStatus(ctx, input.Actor, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	return &Output{Summary: *summary}, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
