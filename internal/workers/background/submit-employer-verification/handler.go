package submitemployerverification

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "submit-employer-verification"
)

type Engine interface {
	SubmitEmployerVerification(ctx context.Context, in engine.EmployerVerificationInput) (*engine.Result, error)
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
	res, err := h.engine.SubmitEmployerVerification(ctx, engine.EmployerVerificationInput{
		Token:     input.Token,
		Response:  input.Response,
		Confirmed: input.Confirmed,
	})
	if err != nil {
		return nil, err
	}
	return &Output{Summary: res.Summary()}, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
