package registerinterest

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "register-interest"
)

type Engine interface {
	RegisterInterest(ctx context.Context, actor models.Actor, in engine.RegisterInterestInput) (*engine.Result, error)
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
	res, err := h.engine.RegisterInterest(ctx, input.Actor, engine.RegisterInterestInput{
		PropertyID:     input.PropertyID,
		ApplicantName:  input.ApplicantName,
		ApplicantEmail: input.ApplicantEmail,
		ApplicantTel:   input.ApplicantTel,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("interest registered", map[string]interface{}{
		"applicationId": res.Application.ID,
		"propertyId":    input.PropertyID,
	})
	return &Output{Summary: res.Summary()}, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
