package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/personnel-api/internal/models"
	appErrors "github.com/noah-isme/personnel-api/pkg/errors"
)

type itemServiceMock struct {
	rows        []models.ItemRecord
	err         error
	lastItem    string
	lastID      int64
	lastPayload map[string]interface{}
}

func (m *itemServiceMock) List(ctx context.Context, item string, personID int64) ([]models.ItemRecord, error) {
	m.lastItem, m.lastID = item, personID
	return m.rows, m.err
}

func (m *itemServiceMock) Upsert(ctx context.Context, item string, personID int64, payload map[string]interface{}) error {
	m.lastItem, m.lastID, m.lastPayload = item, personID, payload
	return m.err
}

func (m *itemServiceMock) Delete(ctx context.Context, item string, itemID int64) error {
	m.lastItem, m.lastID = item, itemID
	return m.err
}

func TestItemHandlerList(t *testing.T) {
	svc := &itemServiceMock{rows: []models.ItemRecord{{"id": int64(1), "contact": "+7 900"}}}
	h := NewItemHandler(svc)

	c, w := newTestContext(http.MethodGet, "/routes/contacts/3", nil, gin.Params{{Key: "item", Value: "contacts"}, {Key: "personId", Value: "3"}})
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "contacts", svc.lastItem)
	assert.Equal(t, int64(3), svc.lastID)
	assert.JSONEq(t, `[{"id":1,"contact":"+7 900"}]`, w.Body.String())
}

func TestItemHandlerUpsertKeepsNumbersExact(t *testing.T) {
	svc := &itemServiceMock{}
	h := NewItemHandler(svc)

	body := []byte(`{"id": 9007199254740993, "view": "phone"}`)
	c, w := newTestContext(http.MethodPost, "/routes/contacts/3", body, gin.Params{{Key: "item", Value: "contacts"}, {Key: "personId", Value: "3"}})
	h.Upsert(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, json.Number("9007199254740993"), svc.lastPayload["id"])
}

func TestItemHandlerUnknownItem(t *testing.T) {
	svc := &itemServiceMock{err: appErrors.ErrUnknownItem}
	h := NewItemHandler(svc)

	c, w := newTestContext(http.MethodDelete, "/routes/users/1", nil, gin.Params{{Key: "item", Value: "users"}, {Key: "itemId", Value: "1"}})
	h.Delete(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, appErrors.ErrUnknownItem.Code, body["error"]["code"])
}

func TestItemHandlerRejectsMalformedInput(t *testing.T) {
	svc := &itemServiceMock{}
	h := NewItemHandler(svc)

	c, w := newTestContext(http.MethodPost, "/routes/contacts/3", []byte(`[1,2]`), gin.Params{{Key: "item", Value: "contacts"}, {Key: "personId", Value: "3"}})
	h.Upsert(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodDelete, "/routes/contacts/abc", nil, gin.Params{{Key: "item", Value: "contacts"}, {Key: "itemId", Value: "abc"}})
	h.Delete(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.lastItem)
}
