// Package audit records one immutable event per mutating domain event.
// Recording is best-effort: a failing sink is logged and counted, never
// returned to the caller. The log offers no update or delete.
package audit

import (
	"context"
	"fmt"
	"time"

	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/common/metrics"
	"tenancy-workflow/internal/models"

	"github.com/google/uuid"
)

type Sink interface {
	Name() string
	Write(ctx context.Context, ev models.AuditEvent) error
}

type Recorder struct {
	sinks  []Sink
	logger logger.Logger
	now    func() time.Time
}

func NewRecorder(log logger.Logger, sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, logger: log, now: time.Now}
}

// Record writes ev to every sink. ID and OccurredAt are filled when empty.
func (r *Recorder) Record(ctx context.Context, ev models.AuditEvent) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = r.now().UTC()
	}
	if ev.Metadata == nil {
		ev.Metadata = map[string]interface{}{}
	}

	for _, sink := range r.sinks {
		if err := r.write(ctx, sink, ev); err != nil {
			metrics.AuditWriteFailures.WithLabelValues(sink.Name()).Inc()
			r.logger.Warn("audit write failed", map[string]interface{}{
				"sink":     sink.Name(),
				"action":   ev.Action,
				"targetId": ev.TargetID,
				"error":    err,
			})
		}
	}
}

func (r *Recorder) write(ctx context.Context, sink Sink, ev models.AuditEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sink panic: %v", p)
		}
	}()
	return sink.Write(ctx, ev)
}
