package addcotenant

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "add-co-tenant"
)

type Engine interface {
	AddCoTenant(ctx context.Context, actor models.Actor, in engine.AddCoTenantInput) (*engine.Result, error)
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
	res, err := h.engine.AddCoTenant(ctx, input.Actor, engine.AddCoTenantInput{
		ApplicationID: input.ApplicationID,
		Name:          input.Name,
		Email:         input.Email,
		Tel:           input.Tel,
		Consents: engine.ConsentInput{
			CreditCheck:       input.Consents.CreditCheck,
			EmployerReference: input.Consents.EmployerReference,
			LandlordReference: input.Consents.LandlordReference,
			DataSharing:       input.Consents.DataSharing,
		},
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("co-tenant added", map[string]interface{}{
		"applicationId": input.ApplicationID,
	})
	return &Output{Summary: res.Summary(), InviteSent: len(res.DeliveryFailures) == 0}, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
