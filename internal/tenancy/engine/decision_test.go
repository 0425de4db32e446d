package engine

import (
	"context"
	"testing"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readyForDecision walks an application through viewing confirmation and
// consent.
func readyForDecision(t *testing.T, h *harness) string {
	t.Helper()
	id := h.register(t)
	h.schedule(t, id)
	h.confirmViewing(t, id)
	h.consent(t, id, models.ReferenceContacts{})
	return id
}

func TestNotifyDecision_PendingIsPreconditionFailed(t *testing.T) {
	h := newHarness(t)
	id := readyForDecision(t, h)

	_, err := h.engine.NotifyDecision(context.Background(), landlord, NotifyDecisionInput{ApplicationID: id})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodePreconditionFailed))
	assert.Contains(t, err.Error(), "set a decision before notifying")
}

func TestNotifyDecision_Pass(t *testing.T) {
	h := newHarness(t)
	id := readyForDecision(t, h)
	ctx := context.Background()

	res, err := h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{
		ApplicationID: id, Decision: models.DecisionPass, Notes: "Welcome aboard",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StageBackgroundChecks, res.Application.CurrentStage, "recording does not advance")
	assert.Equal(t, models.StatusInProgress, res.Application.Status)
	assert.Equal(t, "Approved", res.Summary().StatusLabel)

	res, err = h.engine.NotifyDecision(ctx, landlord, NotifyDecisionInput{ApplicationID: id})
	require.NoError(t, err)

	app := res.Application
	assert.Equal(t, models.StageFinancials, app.CurrentStage)
	assert.Equal(t, models.BackgroundComplete, app.Stage2.Status)
	assert.NotNil(t, app.Stage2.LandlordDecision.NotifiedAt)
	require.NotNil(t, app.Stage3)
	assert.Equal(t, models.FinancialPending, app.Stage3.Status)
	assert.Equal(t, "Financials pending", res.Summary().StatusLabel)

	var channels []models.Channel
	for _, m := range h.notifier.sent {
		if m.Template == "decision_pass" {
			channels = append(channels, m.Channel)
		}
	}
	assert.ElementsMatch(t, []models.Channel{models.ChannelEmail, models.ChannelSMS}, channels)

	_, err = h.engine.NotifyDecision(ctx, landlord, NotifyDecisionInput{ApplicationID: id})
	assert.True(t, errors.HasCode(err, errors.ErrCodePreconditionFailed), "decision already sent")

	_, err = h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionFail})
	assert.True(t, errors.HasCode(err, errors.ErrCodePreconditionFailed), "decision is final once sent")
	_, err = h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionPending})
	assert.True(t, errors.HasCode(err, errors.ErrCodePreconditionFailed), "a sent pass cannot be reset")
}

func TestNotifyDecision_FailDoesNotAdvance(t *testing.T) {
	h := newHarness(t)
	id := readyForDecision(t, h)
	ctx := context.Background()

	_, err := h.engine.AddCoTenant(ctx, applicant, coTenantInput(id))
	require.NoError(t, err)
	_, err = h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionFail})
	require.NoError(t, err)

	res, err := h.engine.NotifyDecision(ctx, landlord, NotifyDecisionInput{ApplicationID: id})
	require.NoError(t, err)
	assert.Equal(t, models.StageBackgroundChecks, res.Application.CurrentStage)
	assert.Equal(t, models.StatusRefused, res.Application.Status)
	assert.Nil(t, res.Application.Stage3)
	assert.ElementsMatch(t, []string{"ada@example.com", "+447700900123", "cal@example.com"}, h.notifier.to("decision_fail"))
}

func TestNotifyDecision_PassBlockedByFailedCreditCheck(t *testing.T) {
	h := newHarness(t)
	id := readyForDecision(t, h)
	ctx := context.Background()

	_, err := h.engine.SubmitCreditCheck(ctx, landlord, CreditCheckInput{ApplicationID: id, ExperianScore: intPtr(500), CCJCount: intPtr(0)})
	require.NoError(t, err)
	_, err = h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionPass})
	require.NoError(t, err)

	_, err = h.engine.NotifyDecision(ctx, landlord, NotifyDecisionInput{ApplicationID: id})
	assert.True(t, errors.HasCode(err, errors.ErrCodePreconditionFailed))
}

func TestRecordLandlordDecision_ResetRestoresStatus(t *testing.T) {
	tests := []struct {
		name       string
		score      int
		wantStatus models.ApplicationStatus
	}{
		{name: "passing checks", score: 800, wantStatus: models.StatusInProgress},
		{name: "failed credit check", score: 500, wantStatus: models.StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			id := readyForDecision(t, h)
			ctx := context.Background()

			_, err := h.engine.SubmitCreditCheck(ctx, landlord, CreditCheckInput{ApplicationID: id, ExperianScore: intPtr(tt.score), CCJCount: intPtr(0)})
			require.NoError(t, err)

			res, err := h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionFail})
			require.NoError(t, err)
			assert.Equal(t, models.StatusRefused, res.Application.Status)
			assert.NotNil(t, res.Application.Stage2.LandlordDecision.DecidedAt)

			res, err = h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionPending})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Application.Status)
			assert.Nil(t, res.Application.Stage2.LandlordDecision.DecidedAt)
			assert.Equal(t, "fail", h.audit.last().Metadata["previousDecision"])
		})
	}
}

func TestRecordLandlordDecision_Rejections(t *testing.T) {
	h := newHarness(t)
	id := h.register(t)
	ctx := context.Background()

	_, err := h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: "maybe"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))

	_, err = h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionPass})
	assert.True(t, errors.HasCode(err, errors.ErrCodePreconditionFailed), "no background stage yet")

	_, err = h.engine.RecordLandlordDecision(ctx, applicant, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionPass})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestRecordLandlordDecision_ResetAfterRefusalSent(t *testing.T) {
	h := newHarness(t)
	id := readyForDecision(t, h)
	ctx := context.Background()

	_, err := h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionFail})
	require.NoError(t, err)
	_, err = h.engine.NotifyDecision(ctx, landlord, NotifyDecisionInput{ApplicationID: id})
	require.NoError(t, err)

	_, err = h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionPass})
	assert.True(t, errors.HasCode(err, errors.ErrCodePreconditionFailed), "only a reset is allowed once a refusal is sent")

	res, err := h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionPending})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, res.Application.Status)
	assert.Nil(t, res.Application.Stage2.LandlordDecision.NotifiedAt)
	assert.Nil(t, res.Application.Stage2.LandlordDecision.DecidedAt)
	assert.Equal(t, models.StageBackgroundChecks, res.Application.CurrentStage)
	assert.Equal(t, true, h.audit.last().Metadata["reopened"])
	assert.Equal(t, "fail", h.audit.last().Metadata["previousDecision"])

	_, err = h.engine.RecordLandlordDecision(ctx, landlord, LandlordDecisionInput{ApplicationID: id, Decision: models.DecisionPass})
	require.NoError(t, err)
	res, err = h.engine.NotifyDecision(ctx, landlord, NotifyDecisionInput{ApplicationID: id})
	require.NoError(t, err)
	assert.Equal(t, models.StageFinancials, res.Application.CurrentStage)
	assert.Len(t, h.notifier.to("decision_pass"), 2)
}
