// Package workers lists every tenancy task type and builds the Zeebe job
// handlers for the ones enabled in configuration.
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/config"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
	"tenancy-workflow/pkg/registry"

	cancelapplication "tenancy-workflow/internal/workers/application/cancel-application"
	projectstatus "tenancy-workflow/internal/workers/application/project-status"
	registerinterest "tenancy-workflow/internal/workers/application/register-interest"
	addcotenant "tenancy-workflow/internal/workers/background/add-co-tenant"
	recordbackgroundconsent "tenancy-workflow/internal/workers/background/record-background-consent"
	requestemployerverification "tenancy-workflow/internal/workers/background/request-employer-verification"
	requestlandlordreference "tenancy-workflow/internal/workers/background/request-landlord-reference"
	submitcotenantinfo "tenancy-workflow/internal/workers/background/submit-co-tenant-info"
	submitcreditcheck "tenancy-workflow/internal/workers/background/submit-credit-check"
	submitemployerverification "tenancy-workflow/internal/workers/background/submit-employer-verification"
	submitlandlordreference "tenancy-workflow/internal/workers/background/submit-landlord-reference"
	notifydecision "tenancy-workflow/internal/workers/decision/notify-decision"
	recordlandlorddecision "tenancy-workflow/internal/workers/decision/record-landlord-decision"
	recordviewingconfirmation "tenancy-workflow/internal/workers/viewing/record-viewing-confirmation"
	saveviewingsummary "tenancy-workflow/internal/workers/viewing/save-viewing-summary"
	scheduleviewing "tenancy-workflow/internal/workers/viewing/schedule-viewing"
	sendviewingsummary "tenancy-workflow/internal/workers/viewing/send-viewing-summary"
)

// Engine is every operation exposed as a task type. *engine.Engine
// satisfies it.
type Engine interface {
	RegisterInterest(ctx context.Context, actor models.Actor, in engine.RegisterInterestInput) (*engine.Result, error)
	CancelApplication(ctx context.Context, actor models.Actor, in engine.CancelInput) (*engine.Result, error)
	ProjectStatus(ctx context.Context, actor models.Actor, applicationID string) (*engine.Summary, error)
	ScheduleViewing(ctx context.Context, actor models.Actor, in engine.ScheduleViewingInput) (*engine.Result, error)
	SaveViewingSummary(ctx context.Context, actor models.Actor, in engine.SaveViewingSummaryInput) (*engine.Result, error)
	SendViewingSummary(ctx context.Context, actor models.Actor, in engine.SendViewingSummaryInput) (*engine.Result, error)
	RecordViewingConfirmation(ctx context.Context, in engine.ViewingConfirmationInput) (*engine.Result, error)
	RecordBackgroundConsent(ctx context.Context, actor models.Actor, in engine.BackgroundConsentInput) (*engine.Result, error)
	AddCoTenant(ctx context.Context, actor models.Actor, in engine.AddCoTenantInput) (*engine.Result, error)
	SubmitCoTenantBackgroundInfo(ctx context.Context, in engine.CoTenantInfoInput) (*engine.Result, error)
	SubmitCreditCheck(ctx context.Context, actor models.Actor, in engine.CreditCheckInput) (*engine.Result, error)
	RequestEmployerVerification(ctx context.Context, actor models.Actor, in engine.ReferenceRequestInput) (*engine.Result, error)
	SubmitEmployerVerification(ctx context.Context, in engine.EmployerVerificationInput) (*engine.Result, error)
	RequestLandlordReference(ctx context.Context, actor models.Actor, in engine.ReferenceRequestInput) (*engine.Result, error)
	SubmitLandlordReference(ctx context.Context, in engine.LandlordReferenceInput) (*engine.Result, error)
	RecordLandlordDecision(ctx context.Context, actor models.Actor, in engine.LandlordDecisionInput) (*engine.Result, error)
	NotifyDecision(ctx context.Context, actor models.Actor, in engine.NotifyDecisionInput) (*engine.Result, error)
}

// Definition describes one task type.
type Definition struct {
	TaskType    string
	Category    string
	DisplayName string
	Description string
	InputSchema string
	// TokenGated tasks are called on behalf of an unauthenticated link holder.
	TokenGated bool
	ErrorCodes []string
	build      func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task
}

var (
	actorErrors = []string{"UNAUTHORIZED", "NOT_FOUND", "VALIDATION_FAILED", "PRECONDITION_FAILED", "VERSION_CONFLICT"}
	tokenErrors = []string{"TOKEN_NOT_FOUND", "TOKEN_ALREADY_USED", "TOKEN_EXPIRED", "VALIDATION_FAILED", "PRECONDITION_FAILED", "VERSION_CONFLICT"}
)

// Catalog returns every task type in workflow order.
func Catalog() []Definition {
	return []Definition{
		{
			TaskType: registerinterest.TaskType, Category: "application", DisplayName: "Register interest",
			Description: "Applicant registers interest in a property; creates the application in draft.",
			InputSchema: registerinterest.InputSchema,
			ErrorCodes:  append([]string{"DUPLICATE_APPLICATION"}, actorErrors...),
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return registerinterest.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: cancelapplication.TaskType, Category: "application", DisplayName: "Cancel application",
			Description: "Applicant or landlord cancels; no further events are accepted.",
			InputSchema: cancelapplication.InputSchema, ErrorCodes: actorErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return cancelapplication.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: projectstatus.TaskType, Category: "application", DisplayName: "Project status",
			Description: "Returns the human-facing status of an application.",
			InputSchema: projectstatus.InputSchema, ErrorCodes: actorErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return projectstatus.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: scheduleviewing.TaskType, Category: "viewing", DisplayName: "Schedule viewing",
			Description: "Landlord agrees a viewing date and time with the applicant.",
			InputSchema: scheduleviewing.InputSchema, ErrorCodes: actorErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return scheduleviewing.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: saveviewingsummary.TaskType, Category: "viewing", DisplayName: "Save viewing summary",
			Description: "Landlord records notes, checklist and photos from the viewing.",
			InputSchema: saveviewingsummary.InputSchema, ErrorCodes: actorErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return saveviewingsummary.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: sendviewingsummary.TaskType, Category: "viewing", DisplayName: "Send viewing summary",
			Description: "Emails the applicant a single-use link to respond to the viewing summary.",
			InputSchema: sendviewingsummary.InputSchema, ErrorCodes: actorErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return sendviewingsummary.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: recordviewingconfirmation.TaskType, Category: "viewing", DisplayName: "Record viewing confirmation",
			Description: "Applicant confirms, declines or queries the viewing summary.",
			InputSchema: recordviewingconfirmation.InputSchema, TokenGated: true, ErrorCodes: tokenErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return recordviewingconfirmation.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: recordbackgroundconsent.TaskType, Category: "background", DisplayName: "Record background consent",
			Description: "Applicant grants or refuses the four background check consents.",
			InputSchema: recordbackgroundconsent.InputSchema, ErrorCodes: actorErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return recordbackgroundconsent.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: addcotenant.TaskType, Category: "background", DisplayName: "Add co-tenant",
			Description: "Applicant adds a co-tenant, who is emailed a link to submit their details.",
			InputSchema: addcotenant.InputSchema, ErrorCodes: actorErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return addcotenant.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: submitcotenantinfo.TaskType, Category: "background", DisplayName: "Submit co-tenant info",
			Description: "Co-tenant submits employer and previous landlord contacts.",
			InputSchema: submitcotenantinfo.InputSchema, TokenGated: true, ErrorCodes: tokenErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return submitcotenantinfo.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: submitcreditcheck.TaskType, Category: "background", DisplayName: "Submit credit check",
			Description: "Landlord records a party's credit check, evaluated against their criteria.",
			InputSchema: submitcreditcheck.InputSchema, ErrorCodes: append([]string{"EXTERNAL_SERVICE_ERROR"}, actorErrors...),
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return submitcreditcheck.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: requestemployerverification.TaskType, Category: "background", DisplayName: "Request employer verification",
			Description: "Emails a party's employer a single-use reference link.",
			InputSchema: requestemployerverification.InputSchema, ErrorCodes: actorErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return requestemployerverification.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: submitemployerverification.TaskType, Category: "background", DisplayName: "Submit employer verification",
			Description: "Employer submits the reference.",
			InputSchema: submitemployerverification.InputSchema, TokenGated: true, ErrorCodes: tokenErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return submitemployerverification.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: requestlandlordreference.TaskType, Category: "background", DisplayName: "Request landlord reference",
			Description: "Emails a party's previous landlord a single-use reference link.",
			InputSchema: requestlandlordreference.InputSchema, ErrorCodes: actorErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return requestlandlordreference.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: submitlandlordreference.TaskType, Category: "background", DisplayName: "Submit landlord reference",
			Description: "Previous landlord submits the reference.",
			InputSchema: submitlandlordreference.InputSchema, TokenGated: true, ErrorCodes: tokenErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return submitlandlordreference.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: recordlandlorddecision.TaskType, Category: "decision", DisplayName: "Record landlord decision",
			Description: "Landlord passes or fails the background checks.",
			InputSchema: recordlandlorddecision.InputSchema, ErrorCodes: actorErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return recordlandlorddecision.NewHandler(eng, log).Task(timeout)
			},
		},
		{
			TaskType: notifydecision.TaskType, Category: "decision", DisplayName: "Notify decision",
			Description: "Sends the decision letter; a pass moves the application to financials.",
			InputSchema: notifydecision.InputSchema, ErrorCodes: actorErrors,
			build: func(eng Engine, log logger.Logger, timeout time.Duration) *camunda.Task {
				return notifydecision.NewHandler(eng, log).Task(timeout)
			},
		},
	}
}

// Build returns a task for every definition enabled in cfg and, when reg is
// non-nil, marked completed or verified in the activity registry.
func Build(eng Engine, cfg *config.Config, reg *registry.ActivityRegistry, log logger.Logger) []*camunda.Task {
	var tasks []*camunda.Task
	for _, def := range Catalog() {
		if !config.IsWorkerEnabled(cfg, def.TaskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": def.TaskType})
			continue
		}
		if reg != nil && !reg.IsEnabled(def.TaskType) {
			log.Info("worker not enabled in registry", map[string]interface{}{"taskType": def.TaskType})
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, def.TaskType)
		tasks = append(tasks, def.build(eng, log, config.GetDuration(wcfg.Timeout)))
	}
	return tasks
}

// Registry renders the catalog as an activity registry document.
func Registry(version string, now time.Time) (*registry.ActivityRegistry, error) {
	reg := &registry.ActivityRegistry{
		Version:     version,
		LastUpdated: now.UTC().Format(time.RFC3339),
	}
	for _, def := range Catalog() {
		var schema map[string]interface{}
		if err := json.Unmarshal([]byte(def.InputSchema), &schema); err != nil {
			return nil, fmt.Errorf("input schema for %s: %w", def.TaskType, err)
		}
		tags := []string{def.Category}
		if def.TokenGated {
			tags = append(tags, "token-gated")
		}
		reg.Activities = append(reg.Activities, registry.Activity{
			ID:                   def.TaskType,
			DisplayName:          def.DisplayName,
			Description:          def.Description,
			Category:             def.Category,
			Version:              version,
			TaskType:             def.TaskType,
			ImplementationStatus: registry.StatusCompleted,
			InputSchema:          schema,
			ErrorCodes:           def.ErrorCodes,
			Timeout:              "30s",
			Retries:              3,
			Workflows:            []string{"tenancy-application"},
			Tags:                 tags,
		})
	}
	return reg, nil
}
