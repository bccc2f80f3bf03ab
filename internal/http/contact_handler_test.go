package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Danne56/chatbot-api/internal/config"
	"github.com/Danne56/chatbot-api/internal/repository"
	"github.com/Danne56/chatbot-api/internal/service"
	"github.com/Danne56/chatbot-api/internal/store"
)

// newTestRouter 内存仓库 + 完整路由（无鉴权/限流）
func newTestRouter(t *testing.T, policy config.WritePolicy, lookupMode config.LookupNotFoundMode) *Router {
	t.Helper()
	logger := zap.NewNop()

	memStore := repository.NewMemoryStore()
	contactsRepo := repository.NewMemoryContactsRepo(memStore)
	prefsRepo := repository.NewMemoryPreferencesRepo(memStore, policy)
	logsRepo := repository.NewMemoryMessageLogsRepo(memStore)

	contactSvc := service.NewContactService(contactsRepo, logger)
	prefSvc := service.NewPreferenceService(prefsRepo, contactsRepo, store.NoopConsentPublisher{}, nil, logger)
	logSvc := service.NewMessageLogService(logsRepo, contactsRepo, logger)

	router := NewRouter(logger)
	router.RegisterHealthRoute()
	router.RegisterAPIRoutes(
		NewContactHandler(contactSvc, lookupMode, logger),
		NewMessageLogHandler(logSvc, logger),
		NewPreferenceHandler(prefSvc, logger),
	)
	return router
}

func doJSON(t *testing.T, router *Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, config.WritePolicyUpsert, config.LookupNotFoundEmpty)

	rec := doJSON(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", decodeBody(t, rec)["status"])
}

func TestCreateContact_ThenIdempotentRepeat(t *testing.T) {
	router := newTestRouter(t, config.WritePolicyUpsert, config.LookupNotFoundEmpty)

	rec := doJSON(t, router, http.MethodPost, "/api/contacts", `{"phone_number":"+15550001"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["existed"])
	id := body["id"].(string)
	assert.Len(t, id, 12)

	rec = doJSON(t, router, http.MethodPost, "/api/contacts", `{"phone_number":"+15550001"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["existed"])
	assert.Equal(t, id, body["id"])
}

func TestCreateContact_ValidationErrors(t *testing.T) {
	router := newTestRouter(t, config.WritePolicyUpsert, config.LookupNotFoundEmpty)

	// 缺字段
	rec := doJSON(t, router, http.MethodPost, "/api/contacts", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 太短
	rec = doJSON(t, router, http.MethodPost, "/api/contacts", `{"phone_number":"+1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 类型错误
	rec = doJSON(t, router, http.MethodPost, "/api/contacts", `{"phone_number":12345}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body, "errors")
}

func TestGetContact_EmptyMode(t *testing.T) {
	router := newTestRouter(t, config.WritePolicyUpsert, config.LookupNotFoundEmpty)

	rec := doJSON(t, router, http.MethodGet, "/api/contacts/+15559999", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Nil(t, body["data"])
}

func TestGetContact_404Mode(t *testing.T) {
	router := newTestRouter(t, config.WritePolicyUpsert, config.LookupNotFound404)

	rec := doJSON(t, router, http.MethodGet, "/api/contacts/+15559999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetContact_Found(t *testing.T) {
	router := newTestRouter(t, config.WritePolicyUpsert, config.LookupNotFoundEmpty)

	rec := doJSON(t, router, http.MethodPost, "/api/contacts", `{"phone_number":"+15550001"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodGet, "/api/contacts/+15550001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, id, data["id"])
	assert.Equal(t, "+15550001", data["phone_number"])
}

func TestExportConsent_XLSX(t *testing.T) {
	router := newTestRouter(t, config.WritePolicyUpsert, config.LookupNotFoundEmpty)

	rec := doJSON(t, router, http.MethodPost, "/api/contacts", `{"phone_number":"+15550001"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/contacts/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}
