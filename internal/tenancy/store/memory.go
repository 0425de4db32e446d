package store

import (
	"context"
	"encoding/json"
	"sync"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/models"
)

// MemoryStore keeps deep copies of documents in memory with the same
// version contract as PostgresStore. Used by tests and tenancyctl dry runs.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string][]byte{}}
}

func (m *MemoryStore) Create(_ context.Context, app *models.TenancyApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range m.docs {
		existing, err := decode(doc)
		if err != nil {
			return err
		}
		if existing.ApplicantID == app.ApplicantID && existing.PropertyID == app.PropertyID {
			return errors.NewDuplicateApplicationError(existing.ID)
		}
	}
	return m.put(app)
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.TenancyApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, errors.NewNotFoundError("application", id)
	}
	return decode(doc)
}

func (m *MemoryStore) FindByTokenHash(_ context.Context, hash string) (*models.TenancyApplication, error) {
	return m.find("token", func(app *models.TenancyApplication) bool {
		for _, h := range app.TokenHashes() {
			if h == hash {
				return true
			}
		}
		return false
	})
}

func (m *MemoryStore) FindByApplicantAndProperty(_ context.Context, applicantID, propertyID string) (*models.TenancyApplication, error) {
	return m.find(applicantID+"/"+propertyID, func(app *models.TenancyApplication) bool {
		return app.ApplicantID == applicantID && app.PropertyID == propertyID
	})
}

func (m *MemoryStore) Save(_ context.Context, app *models.TenancyApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[app.ID]
	if !ok {
		return errors.NewNotFoundError("application", app.ID)
	}
	stored, err := decode(doc)
	if err != nil {
		return err
	}
	if stored.Version != app.Version {
		return errors.NewVersionConflictError(app.ID, app.Version)
	}

	app.Version++
	if err := m.put(app); err != nil {
		app.Version--
		return err
	}
	return nil
}

func (m *MemoryStore) find(id string, match func(*models.TenancyApplication) bool) (*models.TenancyApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range m.docs {
		app, err := decode(doc)
		if err != nil {
			return nil, err
		}
		if match(app) {
			return app, nil
		}
	}
	return nil, errors.NewNotFoundError("application", id)
}

func (m *MemoryStore) put(app *models.TenancyApplication) error {
	doc, err := json.Marshal(app)
	if err != nil {
		return errors.NewInternalError(err)
	}
	m.docs[app.ID] = doc
	return nil
}

func decode(doc []byte) (*models.TenancyApplication, error) {
	var app models.TenancyApplication
	if err := json.Unmarshal(doc, &app); err != nil {
		return nil, errors.NewInternalError(err)
	}
	return &app, nil
}
