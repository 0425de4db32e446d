package submitcreditcheck

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "submit-credit-check"
)

type Engine interface {
	SubmitCreditCheck(ctx context.Context, actor models.Actor, in engine.CreditCheckInput) (*engine.Result, error)
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
	res, err := h.engine.SubmitCreditCheck(ctx, input.Actor, engine.CreditCheckInput{
		ApplicationID: input.ApplicationID,
		Party:         input.Party,
		ExperianScore: input.ExperianScore,
		CCJCount:      input.CCJCount,
	})
	if err != nil {
		return nil, err
	}

	out := &Output{Summary: res.Summary()}
	party := input.Party
	if party == "" {
		party = models.PartyApplicant
	}
	if pp := res.Application.Party(party); pp != nil && pp.CreditCheck != nil {
		out.Passed = pp.CreditCheck.Passed
		out.FailureReason = pp.CreditCheck.FailureReason
	}

	h.logger.Info("credit check evaluated", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"party":         party,
		"passed":        out.Passed,
	})
	return out, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
