package scheduleviewing

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "schedule-viewing"
)

type Engine interface {
	ScheduleViewing(ctx context.Context, actor models.Actor, in engine.ScheduleViewingInput) (*engine.Result, error)
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
	res, err := h.engine.ScheduleViewing(ctx, input.Actor, engine.ScheduleViewingInput{
		ApplicationID: input.ApplicationID,
		Date:          input.Date,
		Time:          input.Time,
		Note:          input.Note,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("viewing scheduled", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"date":          input.Date,
		"time":          input.Time,
	})
	return &Output{Summary: res.Summary()}, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
