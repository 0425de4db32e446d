package audit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	name   string
	events []models.AuditEvent
	err    error
	panics bool
}

func (c *captureSink) Name() string { return c.name }

func (c *captureSink) Write(_ context.Context, ev models.AuditEvent) error {
	if c.panics {
		panic("boom")
	}
	c.events = append(c.events, ev)
	return c.err
}

func TestRecorder_FillsDefaults(t *testing.T) {
	sink := &captureSink{name: "capture"}
	r := NewRecorder(logger.NewTestLogger(t), sink)

	r.Record(context.Background(), models.AuditEvent{ActorID: "landlord-1", Action: "schedule_viewing", TargetID: "app-1"})

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.OccurredAt.IsZero())
	assert.NotNil(t, ev.Metadata)
}

func TestRecorder_SwallowsSinkFailures(t *testing.T) {
	failing := &captureSink{name: "failing", err: errors.New("unavailable")}
	panicking := &captureSink{name: "panicking", panics: true}
	healthy := &captureSink{name: "healthy"}
	r := NewRecorder(logger.NewTestLogger(t), failing, panicking, healthy)

	assert.NotPanics(t, func() {
		r.Record(context.Background(), models.AuditEvent{Action: "cancel_application", TargetID: "app-1"})
	})
	assert.Len(t, healthy.events, 1, "later sinks still receive the event")
}

func TestPostgresStore_Write(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("ev-1", "landlord-1", "landlord", "submit_credit_check", "app-1", "Credit check recorded", sqlmock.AnyArg(), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresStore(db).Write(context.Background(), models.AuditEvent{
		ID: "ev-1", ActorID: "landlord-1", ActorRole: models.RoleLandlord, Action: "submit_credit_check",
		TargetID: "app-1", Description: "Credit check recorded",
		Metadata: map[string]interface{}{"passed": false}, OccurredAt: at,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Write_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnError(errors.New("read-only transaction"))

	err = NewPostgresStore(db).Write(context.Background(), models.AuditEvent{ID: "ev-1"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseWriteFailed))
}

func TestPostgresStore_Find(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	at := from.Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "actor_id", "actor_role", "action", "target_id", "description", "metadata", "occurred_at"}).
		AddRow("ev-2", "landlord-1", "landlord", "notify_decision", "app-1", "Decision sent", []byte(`{"decision":"pass"}`), at)

	mock.ExpectQuery(`FROM audit_log WHERE target_id = \$1 AND action = \$2 AND occurred_at >= \$3 ORDER BY occurred_at DESC LIMIT \$4`).
		WithArgs("app-1", "notify_decision", from, 10).
		WillReturnRows(rows)

	events, err := NewPostgresStore(db).Find(context.Background(), models.AuditFilter{
		TargetID: "app-1", Action: "notify_decision", From: from, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.RoleLandlord, events[0].ActorRole)
	assert.Equal(t, "pass", events[0].Metadata["decision"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Find_NoFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM audit_log ORDER BY occurred_at DESC LIMIT \$1`).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "actor_role", "action", "target_id", "description", "metadata", "occurred_at"}))

	events, err := NewPostgresStore(db).Find(context.Background(), models.AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPostgresStore_Find_CorruptMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "actor_id", "actor_role", "action", "target_id", "description", "metadata", "occurred_at"}).
		AddRow("ev-3", "landlord-1", "landlord", "notify_decision", "app-1", "Decision sent", []byte(`{"decision":`), time.Now())
	mock.ExpectQuery(`FROM audit_log WHERE target_id = \$1 ORDER BY occurred_at DESC LIMIT \$2`).
		WithArgs("app-1", 100).
		WillReturnRows(rows)

	events, err := NewPostgresStore(db).Find(context.Background(), models.AuditFilter{TargetID: "app-1"})
	assert.Nil(t, events)
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseQueryFailed))
	assert.Contains(t, err.Error(), "ev-3")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestElasticsearchSink_Write(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotPath, gotBody = r.URL.Path, string(body)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	err = NewElasticsearchSink(es, "tenancy-audit").Write(context.Background(), models.AuditEvent{
		ID: "ev-3", Action: "add_co_tenant", TargetID: "app-1",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gotPath, "/tenancy-audit/_create/ev-3") || strings.HasPrefix(gotPath, "/tenancy-audit/_doc/ev-3"))
	assert.Contains(t, gotBody, `"action":"add_co_tenant"`)
}

func TestElasticsearchSink_Write_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"version_conflict_engine_exception"}`))
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	err = NewElasticsearchSink(es, "tenancy-audit").Write(context.Background(), models.AuditEvent{ID: "ev-3"})
	assert.Error(t, err)
}
