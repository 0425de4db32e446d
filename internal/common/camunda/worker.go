package camunda

import (
	"context"
	"encoding/json"
	"time"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/common/metrics"
	"tenancy-workflow/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobRecorder receives per-job telemetry.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

// Task adapts a typed operation to a Zeebe job handler: the job variables are
// checked against the input schema, decoded, passed to the operation and the
// result completes the job. Errors go through errors.ErrorHandler.
type Task struct {
	taskType   string
	schema     string
	timeout    time.Duration
	run        func(ctx context.Context, variables []byte) (interface{}, error)
	logger     logger.Logger
	errHandler *errors.ErrorHandler
	recorder   JobRecorder
}

// NewTask builds a Task for fn. schema may be empty to skip schema checks.
func NewTask[I any, O any](taskType, schema string, timeout time.Duration, fn func(context.Context, *I) (*O, error), log logger.Logger) *Task {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	taskLog := log.WithFields(map[string]interface{}{"taskType": taskType})
	return &Task{
		taskType: taskType,
		schema:   schema,
		timeout:  timeout,
		run: func(ctx context.Context, variables []byte) (interface{}, error) {
			var input I
			if err := json.Unmarshal(variables, &input); err != nil {
				return nil, errors.NewFieldError("payload", "parse input: "+err.Error())
			}
			return fn(ctx, &input)
		},
		logger:     taskLog,
		errHandler: errors.NewErrorHandler(taskLog),
	}
}

// WithRecorder attaches a telemetry recorder.
func (t *Task) WithRecorder(r JobRecorder) *Task {
	t.recorder = r
	return t
}

func (t *Task) TaskType() string { return t.taskType }

func (t *Task) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(t.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(t.taskType).Dec()

	t.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	output, err := t.Process(ctx, []byte(job.Variables))
	status := "completed"
	if err != nil {
		status = "failed"
		metrics.WorkerJobsFailed.WithLabelValues(t.taskType, string(errors.CodeOf(err))).Inc()
		t.errHandler.HandleJobError(ctx, client, job, err)
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(t.taskType).Inc()
		t.completeJob(ctx, client, job, output)
	}

	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(t.taskType).Observe(elapsed.Seconds())
	if t.recorder != nil {
		t.recorder.RecordJobProcessed(ctx, t.taskType, status)
		t.recorder.RecordJobDuration(ctx, t.taskType, elapsed, status)
	}
}

// Process validates and runs the operation without touching the broker.
func (t *Task) Process(ctx context.Context, variables []byte) (interface{}, error) {
	if t.schema != "" {
		if err := validation.ValidatePayload(t.schema, variables); err != nil {
			return nil, err
		}
	}
	return t.run(ctx, variables)
}

func (t *Task) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		t.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		t.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	t.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}

// Open registers a job worker for the task on client.
func Open(client zbc.Client, t *Task, maxJobsActive int, timeout time.Duration) worker.JobWorker {
	return client.NewJobWorker().
		JobType(t.taskType).
		Handler(t.Handle).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()
}
