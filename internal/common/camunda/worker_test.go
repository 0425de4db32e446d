package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	ApplicationID string `json:"applicationId"`
	Attendees     int    `json:"attendees"`
}

type echoOutput struct {
	ApplicationID string `json:"applicationId"`
	Seats         int    `json:"seats"`
}

const echoSchema = `{
	"type": "object",
	"required": ["applicationId"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"attendees": {"type": "integer"}
	}
}`

func newEchoTask(t *testing.T, schema string, calls *int) *Task {
	return NewTask("echo", schema, 0, func(ctx context.Context, in *echoInput) (*echoOutput, error) {
		*calls++
		if in.ApplicationID == "boom" {
			return nil, apperrors.NewPreconditionFailedError("boom")
		}
		return &echoOutput{ApplicationID: in.ApplicationID, Seats: in.Attendees + 1}, nil
	}, logger.NewTestLogger(t))
}

func TestTask_ProcessDecodesAndRuns(t *testing.T) {
	calls := 0
	task := newEchoTask(t, echoSchema, &calls)

	out, err := task.Process(context.Background(), []byte(`{"applicationId":"app-1","attendees":2,"extra":true}`))
	require.NoError(t, err)

	assert.Equal(t, &echoOutput{ApplicationID: "app-1", Seats: 3}, out)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "echo", task.TaskType())
	assert.Equal(t, 30*time.Second, task.timeout)
}

func TestTask_SchemaRejectsBeforeRunning(t *testing.T) {
	calls := 0
	task := newEchoTask(t, echoSchema, &calls)

	_, err := task.Process(context.Background(), []byte(`{"attendees":"two"}`))

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
	assert.Zero(t, calls)
}

func TestTask_WithoutSchemaReportsDecodeErrors(t *testing.T) {
	calls := 0
	task := newEchoTask(t, "", &calls)

	_, err := task.Process(context.Background(), []byte(`{"attendees":"two"}`))

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
	assert.Equal(t, "payload", stdErr.Fields[0].Field)
	assert.Zero(t, calls)
}

func TestTask_PropagatesOperationErrors(t *testing.T) {
	calls := 0
	task := newEchoTask(t, echoSchema, &calls)

	_, err := task.Process(context.Background(), []byte(`{"applicationId":"boom"}`))

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePreconditionFailed))
	assert.Equal(t, 1, calls)
}

type recorder struct{ processed []string }

func (r *recorder) RecordJobProcessed(_ context.Context, taskType, status string) {
	r.processed = append(r.processed, taskType+":"+status)
}

func (r *recorder) RecordJobDuration(context.Context, string, time.Duration, string) {}

func TestTask_WithRecorder(t *testing.T) {
	calls := 0
	rec := &recorder{}
	task := newEchoTask(t, echoSchema, &calls).WithRecorder(rec)

	assert.Same(t, rec, task.recorder)
}
