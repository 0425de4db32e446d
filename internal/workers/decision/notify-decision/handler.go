package notifydecision

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "notify-decision"
)

type Engine interface {
	NotifyDecision(ctx context.Context, actor models.Actor, in engine.NotifyDecisionInput) (*engine.Result, error)
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
	res, err := h.engine.NotifyDecision(ctx, input.Actor, engine.NotifyDecisionInput{
		ApplicationID: input.ApplicationID,
	})
	if err != nil {
		return nil, err
	}

	approved := res.Application.CurrentStage >= models.StageFinancials
	h.logger.Info("decision sent", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"approved":      approved,
		"failures":      len(res.DeliveryFailures),
	})
	return &Output{Summary: res.Summary(), Approved: approved}, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
