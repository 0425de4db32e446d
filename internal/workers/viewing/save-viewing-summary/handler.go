package saveviewingsummary

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "save-viewing-summary"
)

type Engine interface {
	SaveViewingSummary(ctx context.Context, actor models.Actor, in engine.SaveViewingSummaryInput) (*engine.Result, error)
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
	res, err := h.engine.SaveViewingSummary(ctx, input.Actor, engine.SaveViewingSummaryInput{
		ApplicationID:   input.ApplicationID,
		Notes:           input.Notes,
		Checklist:       input.Checklist,
		Photos:          input.Photos,
		ViewingOccurred: input.ViewingOccurred,
	})
	if err != nil {
		return nil, err
	}
	return &Output{Summary: res.Summary()}, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
