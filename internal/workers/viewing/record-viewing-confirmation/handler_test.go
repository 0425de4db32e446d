package recordviewingconfirmation

import (
	"context"
	"testing"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/engine"
	"tenancy-workflow/internal/tenancy/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEngine struct {
	confirmFunc func(ctx context.Context, in engine.ViewingConfirmationInput) (*engine.Result, error)
}

func (m *mockEngine) RecordViewingConfirmation(ctx context.Context, in engine.ViewingConfirmationInput) (*engine.Result, error) {
	return m.confirmFunc(ctx, in)
}

func TestHandler_Execute_Success(t *testing.T) {
	var got engine.ViewingConfirmationInput
	h := NewHandler(&mockEngine{
		confirmFunc: func(_ context.Context, in engine.ViewingConfirmationInput) (*engine.Result, error) {
			got = in
			return &engine.Result{Application: &models.TenancyApplication{
				ID:           "app-1",
				Status:       models.StatusInProgress,
				CurrentStage: models.StageBackgroundChecks,
			}}, nil
		},
	}, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Token: "tok", Decision: models.DecisionQuery, Comment: "Is parking included?"})
	require.NoError(t, err)
	assert.Equal(t, models.DecisionQuery, out.Decision)
	assert.Equal(t, "in_progress", out.Status)
	assert.Equal(t, "Is parking included?", got.Comment)
}

func TestHandler_Execute_TokenRejections(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode errors.ErrorCode
	}{
		{name: "unknown token", err: token.ErrNotFound, wantCode: errors.ErrCodeTokenNotFound},
		{name: "spent token", err: token.ErrAlreadyUsed, wantCode: errors.ErrCodeTokenAlreadyUsed},
		{name: "expired token", err: token.ErrExpired, wantCode: errors.ErrCodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&mockEngine{
				confirmFunc: func(context.Context, engine.ViewingConfirmationInput) (*engine.Result, error) {
					return nil, tt.err
				},
			}, logger.NewNoOpLogger())

			out, err := h.Execute(context.Background(), &Input{Token: "tok", Decision: models.DecisionConfirmed})
			assert.Nil(t, out)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
		})
	}
}

func TestTask_MalformedPayload(t *testing.T) {
	h := NewHandler(&mockEngine{}, logger.NewNoOpLogger())

	_, err := h.Task(0).Process(context.Background(), []byte(`{"token":`))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}
