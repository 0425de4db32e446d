package recordviewingconfirmation

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "record-viewing-confirmation"
)

type Engine interface {
	RecordViewingConfirmation(ctx context.Context, in engine.ViewingConfirmationInput) (*engine.Result, error)
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
	res, err := h.engine.RecordViewingConfirmation(ctx, engine.ViewingConfirmationInput{
		Token:    input.Token,
		Decision: input.Decision,
		Comment:  input.Comment,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("viewing response recorded", map[string]interface{}{
		"applicationId": res.Application.ID,
		"decision":      input.Decision,
	})
	return &Output{Summary: res.Summary(), Decision: input.Decision}, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
