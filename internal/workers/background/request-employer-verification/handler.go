package requestemployerverification

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "request-employer-verification"
)

type Engine interface {
	RequestEmployerVerification(ctx context.Context, actor models.Actor, in engine.ReferenceRequestInput) (*engine.Result, error)
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
	res, err := h.engine.RequestEmployerVerification(ctx, input.Actor, engine.ReferenceRequestInput{
		ApplicationID: input.ApplicationID,
		Party:         input.Party,
	})
	if err != nil {
		return nil, err
	}
	return &Output{Summary: res.Summary(), RequestSent: len(res.DeliveryFailures) == 0}, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
