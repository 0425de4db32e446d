package recordbackgroundconsent

import (
	"context"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
)

const (
	TaskType = "record-background-consent"
)

type Engine interface {
	RecordBackgroundConsent(ctx context.Context, actor models.Actor, in engine.BackgroundConsentInput) (*engine.Result, error)
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
	res, err := h.engine.RecordBackgroundConsent(ctx, input.Actor, engine.BackgroundConsentInput{
		ApplicationID: input.ApplicationID,
		Consents: engine.ConsentInput{
			CreditCheck:       input.Consents.CreditCheck,
			EmployerReference: input.Consents.EmployerReference,
			LandlordReference: input.Consents.LandlordReference,
			DataSharing:       input.Consents.DataSharing,
		},
		Contacts: input.Contacts,
	})
	if err != nil {
		return nil, err
	}

	out := &Output{Summary: res.Summary()}
	if s := res.Application.Stage2; s != nil {
		out.BackgroundStatus = s.Status
	}
	return out, nil
}

func (h *Handler) Task(timeout time.Duration) *camunda.Task {
	return camunda.NewTask(TaskType, InputSchema, timeout, h.Execute, h.logger)
}
