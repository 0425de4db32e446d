package notifydecision

import (
	"context"
	"testing"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEngine struct {
	notifyFunc func(ctx context.Context, actor models.Actor, in engine.NotifyDecisionInput) (*engine.Result, error)
}

func (m *mockEngine) NotifyDecision(ctx context.Context, actor models.Actor, in engine.NotifyDecisionInput) (*engine.Result, error) {
	return m.notifyFunc(ctx, actor, in)
}

var landlord = models.Actor{ID: "landlord-1", Role: models.RoleLandlord}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name         string
		stage        int
		status       models.ApplicationStatus
		failures     []*errors.StandardError
		wantApproved bool
	}{
		{name: "pass moves to financials", stage: models.StageFinancials, status: models.StatusInProgress, wantApproved: true},
		{name: "fail stays on background checks", stage: models.StageBackgroundChecks, status: models.StatusRefused},
		{
			name:         "delivery failure still approves",
			stage:        models.StageFinancials,
			status:       models.StatusInProgress,
			failures:     []*errors.StandardError{errors.NewUpstreamDeliveryError("sms", "+447700900123", assert.AnError)},
			wantApproved: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&mockEngine{
				notifyFunc: func(_ context.Context, actor models.Actor, in engine.NotifyDecisionInput) (*engine.Result, error) {
					assert.Equal(t, landlord, actor)
					return &engine.Result{
						Application:      &models.TenancyApplication{ID: in.ApplicationID, Status: tt.status, CurrentStage: tt.stage},
						DeliveryFailures: tt.failures,
					}, nil
				},
			}, logger.NewTestLogger(t))

			out, err := h.Execute(context.Background(), &Input{Actor: landlord, ApplicationID: "app-1"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantApproved, out.Approved)
			assert.Len(t, out.DeliveryFailures, len(tt.failures))
		})
	}
}

func TestHandler_Execute_AlreadySent(t *testing.T) {
	h := NewHandler(&mockEngine{
		notifyFunc: func(context.Context, models.Actor, engine.NotifyDecisionInput) (*engine.Result, error) {
			return nil, errors.NewPreconditionFailedError("decision has already been sent")
		},
	}, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{Actor: landlord, ApplicationID: "app-1"})
	assert.True(t, errors.HasCode(err, errors.ErrCodePreconditionFailed))
}
