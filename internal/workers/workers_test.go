package workers

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"tenancy-workflow/internal/common/camunda"
	"tenancy-workflow/internal/common/config"
	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/audit"
	"tenancy-workflow/internal/tenancy/engine"
	"tenancy-workflow/internal/tenancy/notify"
	"tenancy-workflow/internal/tenancy/store"
	"tenancy-workflow/internal/tenancy/token"
	"tenancy-workflow/pkg/registry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbox struct {
	emails map[string][]string
	sms    map[string][]string
}

func (o *outbox) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	to := params.Destination.ToAddresses[0]
	o.emails[to] = append(o.emails[to], aws.ToString(params.Message.Body.Text.Data))
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func (o *outbox) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	to := aws.ToString(params.PhoneNumber)
	o.sms[to] = append(o.sms[to], aws.ToString(params.Message))
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

// lastToken pulls the token out of the most recent link emailed to addr.
func (o *outbox) lastToken(t *testing.T, addr string) string {
	t.Helper()
	bodies := o.emails[addr]
	require.NotEmpty(t, bodies, "no email to %s", addr)
	body := bodies[len(bodies)-1]
	i := strings.Index(body, "?")
	require.True(t, i >= 0, "no link in %q", body)
	q, err := url.ParseQuery(strings.Fields(body[i+1:])[0])
	require.NoError(t, err)
	require.NotEmpty(t, q.Get("token"))
	return q.Get("token")
}

type directory struct{}

func (directory) Property(_ context.Context, id string) (*models.Property, error) {
	if id != "prop-1" {
		return nil, errors.NewNotFoundError("property", id)
	}
	return &models.Property{ID: id, LandlordID: "landlord-1", Address: "12 Mill Lane"}, nil
}

func (directory) User(_ context.Context, id string) (*models.Contact, error) {
	return &models.Contact{ID: id, Name: "Lee Landlord", Email: "landlord@example.com"}, nil
}

func (directory) ReferenceContacts(context.Context, string) (models.ReferenceContacts, error) {
	return models.ReferenceContacts{}, nil
}

type criteria struct{}

func (criteria) GetCriteria(_ context.Context, landlordID string) (models.Criteria, error) {
	return models.Criteria{LandlordID: landlordID, MinExperianScore: 750, MaxCCJs: 1, Default: true}, nil
}

type fixture struct {
	tasks  map[string]*camunda.Task
	outbox *outbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewTestLogger(t)
	mem := store.NewMemoryStore()
	box := &outbox{emails: map[string][]string{}, sms: map[string][]string{}}

	eng := engine.New(engine.Config{LinkBaseURL: "https://lets.example.com"}, engine.Dependencies{
		Store: mem,
		Tokens: token.NewGateway(mem, token.TTLs{
			ViewingConfirmation: 7 * 24 * time.Hour,
			BackgroundInfo:      24 * time.Hour,
			Reference:           7 * 24 * time.Hour,
		}),
		Criteria:  criteria{},
		Notifier:  notify.NewDispatcher(notify.Config{EmailEnabled: true, SMSEnabled: true, FromEmail: "lettings@example.com"}, box, box, log),
		Directory: directory{},
		Audit:     audit.NewRecorder(log),
		Logger:    log,
	})

	cfg := &config.Config{Workers: map[string]config.WorkerConfig{}}
	f := &fixture{tasks: map[string]*camunda.Task{}, outbox: box}
	for _, task := range Build(eng, cfg, nil, log) {
		f.tasks[task.TaskType()] = task
	}
	return f
}

// run sends variables through the task exactly as a job would and returns
// the job output as a generic document.
func (f *fixture) run(t *testing.T, taskType string, variables map[string]interface{}) (map[string]interface{}, error) {
	t.Helper()
	task, ok := f.tasks[taskType]
	require.True(t, ok, "task %s not built", taskType)

	payload, err := json.Marshal(variables)
	require.NoError(t, err)

	out, err := task.Process(context.Background(), payload)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc, nil
}

func (f *fixture) mustRun(t *testing.T, taskType string, variables map[string]interface{}) map[string]interface{} {
	t.Helper()
	doc, err := f.run(t, taskType, variables)
	require.NoError(t, err, taskType)
	return doc
}

func TestCatalog_UniqueTaskTypesAndValidSchemas(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range Catalog() {
		assert.False(t, seen[def.TaskType], "duplicate task type %s", def.TaskType)
		seen[def.TaskType] = true

		var schema map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(def.InputSchema), &schema), def.TaskType)
		assert.NotEmpty(t, def.ErrorCodes, def.TaskType)
	}
	assert.Len(t, seen, 17)
}

func TestRegistry_Validates(t *testing.T) {
	reg, err := Registry("1.0.0", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	a, ok := reg.Find("record-viewing-confirmation")
	require.True(t, ok)
	assert.Contains(t, a.Tags, "token-gated")
	assert.Equal(t, "2026-05-01T00:00:00Z", reg.LastUpdated)
}

func TestBuild_HonoursConfigAndRegistry(t *testing.T) {
	log := logger.NewNoOpLogger()
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		"notify-decision": {Enabled: false},
	}}

	tasks := Build(nil, cfg, nil, log)
	assert.Len(t, tasks, 16)

	reg := &registry.ActivityRegistry{Activities: []registry.Activity{
		{ID: "schedule-viewing", TaskType: "schedule-viewing", ImplementationStatus: registry.StatusVerified},
		{ID: "project-status", TaskType: "project-status", ImplementationStatus: registry.StatusPlanned},
	}}
	tasks = Build(nil, cfg, reg, log)
	require.Len(t, tasks, 1)
	assert.Equal(t, "schedule-viewing", tasks[0].TaskType())
}

func TestTask_SchemaRejectsBeforeEngine(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "register-interest", map[string]interface{}{
		"actorId":   "applicant-1",
		"actorRole": "landlord",
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	var fields []string
	for _, fe := range stdErr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "propertyId")
	assert.Contains(t, fields, "actorRole")
}

func TestWorkflow_EndToEnd(t *testing.T) {
	f := newFixture(t)
	applicant := map[string]interface{}{"actorId": "applicant-1", "actorRole": "applicant"}
	landlord := map[string]interface{}{"actorId": "landlord-1", "actorRole": "landlord"}
	with := func(actor map[string]interface{}, fields map[string]interface{}) map[string]interface{} {
		out := map[string]interface{}{}
		for k, v := range actor {
			out[k] = v
		}
		for k, v := range fields {
			out[k] = v
		}
		return out
	}

	doc := f.mustRun(t, "register-interest", with(applicant, map[string]interface{}{
		"propertyId":     "prop-1",
		"applicantName":  "Ada Applicant",
		"applicantEmail": "ada@example.com",
		"applicantTel":   "+447700900123",
	}))
	id := doc["applicationId"].(string)
	assert.Equal(t, "draft", doc["status"])
	assert.Len(t, f.outbox.emails["landlord@example.com"], 1)

	_, err := f.run(t, "register-interest", with(applicant, map[string]interface{}{
		"propertyId": "prop-1", "applicantName": "Ada Applicant", "applicantEmail": "ada@example.com",
	}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeDuplicateApplication))

	viewingDate := time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")
	f.mustRun(t, "schedule-viewing", with(landlord, map[string]interface{}{
		"applicationId": id, "date": viewingDate, "time": "14:00",
	}))
	f.mustRun(t, "save-viewing-summary", with(landlord, map[string]interface{}{
		"applicationId":   id,
		"notes":           "Bright and tidy",
		"checklist":       []map[string]interface{}{{"item": "Boiler", "done": true}},
		"viewingOccurred": true,
	}))
	doc = f.mustRun(t, "send-viewing-summary", with(landlord, map[string]interface{}{"applicationId": id}))
	assert.Equal(t, true, doc["linkSent"])
	assert.NotContains(t, doc, "token")

	viewingToken := f.outbox.lastToken(t, "ada@example.com")
	doc = f.mustRun(t, "record-viewing-confirmation", map[string]interface{}{"token": viewingToken, "decision": "confirmed"})
	assert.Equal(t, "in_progress", doc["status"])

	_, err = f.run(t, "record-viewing-confirmation", map[string]interface{}{"token": viewingToken, "decision": "confirmed"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeTokenAlreadyUsed))

	doc = f.mustRun(t, "record-background-consent", with(applicant, map[string]interface{}{
		"applicationId": id,
		"consents":      map[string]interface{}{"creditCheck": true, "employerReference": true, "landlordReference": true, "dataSharing": true},
		"contacts":      map[string]interface{}{"employerEmail": "hr@acme.example"},
	}))
	assert.Equal(t, "agreed", doc["backgroundStatus"])

	doc = f.mustRun(t, "submit-credit-check", with(landlord, map[string]interface{}{
		"applicationId": id, "experianScore": 810, "ccjCount": 0,
	}))
	assert.Equal(t, true, doc["passed"])

	doc = f.mustRun(t, "request-employer-verification", with(landlord, map[string]interface{}{"applicationId": id}))
	assert.Equal(t, true, doc["requestSent"])
	f.mustRun(t, "submit-employer-verification", map[string]interface{}{
		"token":     f.outbox.lastToken(t, "hr@acme.example"),
		"confirmed": true,
		"response":  map[string]interface{}{"refereeName": "Hana HR", "companyName": "Acme"},
	})

	f.mustRun(t, "record-landlord-decision", with(landlord, map[string]interface{}{"applicationId": id, "decision": "pass"}))
	doc = f.mustRun(t, "notify-decision", with(landlord, map[string]interface{}{"applicationId": id}))
	assert.Equal(t, true, doc["approved"])
	assert.EqualValues(t, 3, doc["currentStage"])
	assert.Len(t, f.outbox.sms["+447700900123"], 1)

	doc = f.mustRun(t, "project-status", with(applicant, map[string]interface{}{"applicationId": id}))
	assert.Equal(t, "Financials pending", doc["statusLabel"])

	_, err = f.run(t, "project-status", map[string]interface{}{"actorId": "landlord-2", "actorRole": "landlord", "applicationId": id})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	doc = f.mustRun(t, "cancel-application", with(applicant, map[string]interface{}{"applicationId": id, "reason": "Found another flat"}))
	assert.Equal(t, "cancelled", doc["status"])
}
