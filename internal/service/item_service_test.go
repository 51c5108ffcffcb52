package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/personnel-api/internal/models"
	appErrors "github.com/noah-isme/personnel-api/pkg/errors"
)

type mockItemRepo struct {
	calls      int
	lastKind   models.ItemKind
	lastPerson int64
	lastFields models.ItemRecord
	rows       map[models.ItemKind][]models.ItemRecord
}

func (m *mockItemRepo) ListByPerson(ctx context.Context, kind models.ItemKind, personID int64) ([]models.ItemRecord, error) {
	m.calls++
	m.lastKind, m.lastPerson = kind, personID
	return m.rows[kind], nil
}

func (m *mockItemRepo) Upsert(ctx context.Context, kind models.ItemKind, personID int64, fields models.ItemRecord) error {
	m.calls++
	m.lastKind, m.lastPerson, m.lastFields = kind, personID, fields
	return nil
}

func (m *mockItemRepo) DeleteByID(ctx context.Context, kind models.ItemKind, itemID int64) error {
	m.calls++
	m.lastKind = kind
	return nil
}

func TestItemServiceRejectsUnknownKindsBeforeStorage(t *testing.T) {
	repo := &mockItemRepo{}
	svc := NewItemService(repo, nil, nil)
	ctx := context.Background()

	for _, name := range []string{"users", "persons", "sqlite_master", "Contacts", "", "contacts;--"} {
		_, err := svc.List(ctx, name, 1)
		assert.ErrorIs(t, err, appErrors.ErrUnknownItem, name)
		assert.ErrorIs(t, svc.Upsert(ctx, name, 1, map[string]interface{}{"view": "x"}), appErrors.ErrUnknownItem, name)
		assert.ErrorIs(t, svc.Delete(ctx, name, 1), appErrors.ErrUnknownItem, name)
	}
	assert.Zero(t, repo.calls)
}

func TestItemServiceUpsertSanitisesPayload(t *testing.T) {
	repo := &mockItemRepo{}
	svc := NewItemService(repo, nil, nil)

	var payload map[string]interface{}
	dec := json.NewDecoder(strings.NewReader(`{"id": 5, "view": "phone", "contact": 79001112233, "person_id": 99, "created": "yesterday"}`))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&payload))

	require.NoError(t, svc.Upsert(context.Background(), "contacts", 4, payload))
	assert.Equal(t, models.ItemContacts, repo.lastKind)
	assert.Equal(t, int64(4), repo.lastPerson)
	assert.Equal(t, models.ItemRecord{"id": int64(5), "view": "phone", "contact": "79001112233"}, repo.lastFields)
}

func TestItemServiceUpsertValidation(t *testing.T) {
	repo := &mockItemRepo{}
	svc := NewItemService(repo, nil, nil)
	ctx := context.Background()

	err := svc.Upsert(ctx, "contacts", 1, map[string]interface{}{"contact": "x", "password": "y"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	err = svc.Upsert(ctx, "contacts", 1, map[string]interface{}{"contact": []interface{}{"a"}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	err = svc.Upsert(ctx, "contacts", 1, map[string]interface{}{"id": "abc", "contact": "x"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	err = svc.Upsert(ctx, "contacts", 1, map[string]interface{}{"contact": strings.Repeat("x", maxItemValueLength+1)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	err = svc.Upsert(ctx, "contacts", 1, map[string]interface{}{"person_id": 3})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	assert.Zero(t, repo.calls)
}

func TestItemServiceListAndDelete(t *testing.T) {
	repo := &mockItemRepo{rows: map[models.ItemKind][]models.ItemRecord{
		models.ItemWorkplaces: {{"id": int64(1), "workplace": "ACME"}},
	}}
	svc := NewItemService(repo, nil, nil)

	rows, err := svc.List(context.Background(), "workplaces", 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ACME", rows[0]["workplace"])

	require.NoError(t, svc.Delete(context.Background(), "poligraphs", 10))
	assert.Equal(t, models.ItemPoligraphs, repo.lastKind)
}

func TestItemServiceUpsertAcceptsEmptyPayload(t *testing.T) {
	repo := &mockItemRepo{}
	svc := NewItemService(repo, nil, nil)

	require.NoError(t, svc.Upsert(context.Background(), "addresses", 3, map[string]interface{}{}))
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, models.ItemAddresses, repo.lastKind)
	assert.Equal(t, int64(3), repo.lastPerson)
	assert.Empty(t, repo.lastFields)
}
