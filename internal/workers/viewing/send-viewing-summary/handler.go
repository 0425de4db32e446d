package sendviewingsummary

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "send-viewing-summary"
)

type Engine interface {
	SendViewingSummary(ctx context.Context, actor models.Actor, in engine.SendViewingSummaryInput) (*engine.Result, error)
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
	res, err := h.engine.SendViewingSummary(ctx, input.Actor, engine.SendViewingSummaryInput{
		ApplicationID: input.ApplicationID,
	})
	if err != nil {
		return nil, err
	}

	out := &Output{Summary: res.Summary(), LinkSent: len(res.DeliveryFailures) == 0}
	if !out.LinkSent {
		h.logger.Warn("viewing summary saved but the applicant was not reached", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"failures":      out.DeliveryFailures,
		})
	}
	return out, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
