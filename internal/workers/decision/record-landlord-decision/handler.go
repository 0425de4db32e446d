package recordlandlorddecision

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "record-landlord-decision"
)

type Engine interface {
	RecordLandlordDecision(ctx context.Context, actor models.Actor, in engine.LandlordDecisionInput) (*engine.Result, error)
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
	res, err := h.engine.RecordLandlordDecision(ctx, input.Actor, engine.LandlordDecisionInput{
		ApplicationID: input.ApplicationID,
		Decision:      input.Decision,
		Notes:         input.Notes,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("landlord decision recorded", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"decision":      input.Decision,
	})
	return &Output{Summary: res.Summary(), Decision: input.Decision}, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
