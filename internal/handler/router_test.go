package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/personnel-api/internal/repository"
	"github.com/noah-isme/personnel-api/internal/service"
	"github.com/noah-isme/personnel-api/pkg/config"
	"github.com/noah-isme/personnel-api/pkg/database"
	"github.com/noah-isme/personnel-api/pkg/export"
	"github.com/noah-isme/personnel-api/pkg/storage"
)

func newTestServer(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	base := t.TempDir()

	static := filepath.Join(base, "static")
	require.NoError(t, os.MkdirAll(filepath.Join(static, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	db, err := database.NewSQLite(filepath.Join(base, "database.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "/routes", StaticDir: static}
	metrics := service.NewMetricsService()
	gw := repository.NewGateway(db, metrics)
	personRepo := repository.NewPersonRepository(gw)
	itemRepo := repository.NewItemRepository(gw)
	folders := storage.NewPersonFolders(filepath.Join(base, "Persons"), "", true)
	users := service.NewCurrentUser(repository.NewUserRepository(gw), "tester", zap.NewNop())

	persons := service.NewPersonService(personRepo, folders, users, nil, metrics, service.PaginationOptions{PageSize: 10, MaxPageSize: 100}, nil, zap.NewNop())
	items := service.NewItemService(itemRepo, nil, zap.NewNop())
	dossiers := service.NewDossierService(personRepo, itemRepo, folders, map[string]service.Renderer{"csv": export.NewCSVExporter()}, zap.NewNop())

	r := NewRouter(RouterDeps{
		Config:        cfg,
		Logger:        zap.NewNop(),
		Metrics:       metrics,
		Persons:       NewPersonHandler(persons, dossiers),
		Items:         NewItemHandler(items),
		Observability: NewMetricsHandler(metrics, db),
	})
	return r, base
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterPersonLifecycle(t *testing.T) {
	r, base := newTestServer(t)

	w := do(t, r, http.MethodPost, "/routes/persons", `{"surname":"иванов","firstname":"иван","birthday":"1990-01-02"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		PersonID int64 `json:"person_id"`
		Exists   bool  `json:"exists"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.False(t, created.Exists)

	folder := filepath.Join(base, "Persons", storage.DefaultOffice, "И", fmt.Sprintf("%d-ИВАНОВ ИВАН", created.PersonID))
	info, err := os.Stat(folder)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	w = do(t, r, http.MethodPost, "/routes/persons", `{"surname":"Иванов","firstname":"Иван","birthday":"02.01.1990"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"person_id":%d,"exists":true}`, created.PersonID), w.Body.String())

	w = do(t, r, http.MethodPost, "/routes/persons", fmt.Sprintf(`{"id":%d,"patronymic":"петрович"}`, created.PersonID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, "/routes/persons", fmt.Sprintf(`{"id":%d,"firstname":"иван"}`, created.PersonID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, fmt.Sprintf("/routes/persons/%d", created.PersonID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"surname":"ИВАНОВ"`)
	assert.Contains(t, w.Body.String(), `"patronymic":"ПЕТРОВИЧ"`)
	assert.Contains(t, w.Body.String(), `"birthday":"1990-01-02"`)

	w = do(t, r, http.MethodPost, "/routes/addresses/"+fmt.Sprint(created.PersonID), `{}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, fmt.Sprintf("/routes/contacts/%d", created.PersonID), `{"view":"phone","contact":"+7 900"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, fmt.Sprintf("/routes/contacts/%d", created.PersonID), "")
	require.Equal(t, http.StatusOK, w.Code)
	var contacts []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &contacts))
	require.Len(t, contacts, 1)
	assert.Equal(t, "+7 900", contacts[0]["contact"])

	w = do(t, r, http.MethodGet, fmt.Sprintf("/routes/persons/%d/export?format=csv", created.PersonID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "contacts #1,contact,+7 900")

	w = do(t, r, http.MethodGet, "/routes/candidates/0?search=иванов", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"has_next":false`)

	w = do(t, r, http.MethodDelete, fmt.Sprintf("/routes/persons/%d", created.PersonID), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/routes/persons/%d", created.PersonID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodGet, fmt.Sprintf("/routes/contacts/%d", created.PersonID), "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRouterRejectsTablesOutsideRegistry(t *testing.T) {
	r, _ := newTestServer(t)

	for _, item := range []string{"users", "sqlite_master", "goose_db_version"} {
		w := do(t, r, http.MethodGet, "/routes/"+item+"/1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, item)
		w = do(t, r, http.MethodPost, "/routes/"+item+"/1", `{"username":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, item)
		w = do(t, r, http.MethodDelete, "/routes/"+item+"/1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, item)
	}
}

func TestRouterServesStaticBundle(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(t, r, http.MethodGet, "/assets/app.js", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	w = do(t, r, http.MethodGet, "/candidates/edit", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app")

	w = do(t, r, http.MethodGet, "/routes/unknown/path/deep", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterObservability(t *testing.T) {
	r, _ := newTestServer(t)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/ready", "").Code)

	do(t, r, http.MethodGet, "/routes/candidates/0", "")
	w := do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `db_query_duration_seconds_count{query="persons.search"}`)
}
