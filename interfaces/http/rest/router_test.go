package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"booklib-backend/application/services"
	"booklib-backend/domain"
	"booklib-backend/infrastructure/persistence/sqlite"
	"booklib-backend/pkg/auth"
)

// recordingDispatcher collects dispatched row IDs without fetching, so
// rows stay pending for assertions.
type recordingDispatcher struct {
	mu  sync.Mutex
	ids []string
}

func (d *recordingDispatcher) Dispatch(_ context.Context, userBookID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, userBookID)
	return nil
}

type testAPI struct {
	server     *httptest.Server
	client     *http.Client
	store      *sqlite.Store
	dispatcher *recordingDispatcher
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := zap.NewNop()
	dispatcher := &recordingDispatcher{}
	accounts := services.NewAccountService(store, logger)
	library := services.NewLibraryService(store, dispatcher, logger)
	sessions := auth.NewSessionManager("test-secret", "booklib-test", time.Hour)

	handler := NewRouter(accounts, library, sessions, logger, false).Setup()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testAPI{
		server:     server,
		client:     &http.Client{Jar: jar},
		store:      store,
		dispatcher: dispatcher,
	}
}

// do sends a JSON request through the session-aware client and returns
// the status with the raw response body.
func (a *testAPI) do(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, a.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// decodeData unmarshals the data field of a success envelope.
func decodeData(t *testing.T, raw []byte, out interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

// decodeError unmarshals the flat error shape handlers emit.
func decodeError(t *testing.T, raw []byte) (errType, message string) {
	t.Helper()

	var body struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body.Type, body.Message
}

func (a *testAPI) register(t *testing.T, username, email string) {
	t.Helper()

	status, _ := a.do(t, http.MethodPost, "/register", map[string]string{
		"username":         username,
		"email":            email,
		"password":         "password123",
		"confirm_password": "password123",
	})
	require.Equal(t, http.StatusCreated, status)
}

func (a *testAPI) login(t *testing.T, email string) {
	t.Helper()

	status, _ := a.do(t, http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, status)
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)

	resp, err := http.Get(api.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterLoginAndLibraryFlow(t *testing.T) {
	api := newTestAPI(t)

	api.register(t, "alice", "alice@example.com")
	api.login(t, "alice@example.com")

	// Add a bare-ISBN book.
	status, raw := api.do(t, http.MethodPost, "/books", map[string]interface{}{
		"isbn": "9780441013593",
	})
	require.Equal(t, http.StatusCreated, status)

	var entry domain.LibraryEntry
	decodeData(t, raw, &entry)
	assert.Equal(t, "9780441013593", entry.Book.ISBN)
	assert.Equal(t, domain.PlaceholderTitle, entry.Book.Title)
	assert.Equal(t, domain.SyncPending, entry.UserBook.SyncState)

	// The add dispatched exactly one fetch without blocking.
	assert.Equal(t, []string{entry.UserBook.ID}, api.dispatcher.ids)

	// List shows the single pending row.
	status, raw = api.do(t, http.MethodGet, "/books", nil)
	require.Equal(t, http.StatusOK, status)

	var entries []domain.LibraryEntry
	decodeData(t, raw, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.UserBook.ID, entries[0].UserBook.ID)

	// Manual edit marks the row synced.
	status, raw = api.do(t, http.MethodPut, "/books/"+entry.UserBook.ID, map[string]interface{}{
		"title":  "Dune",
		"status": "in-progress",
		"rating": 4,
	})
	require.Equal(t, http.StatusOK, status)

	var updated domain.LibraryEntry
	decodeData(t, raw, &updated)
	assert.Equal(t, "Dune", updated.Book.Title)
	assert.Equal(t, domain.StatusInProgress, updated.UserBook.Status)
	assert.Equal(t, domain.SyncSynced, updated.UserBook.SyncState)
	require.NotNil(t, updated.UserBook.Rating)
	assert.Equal(t, 4, *updated.UserBook.Rating)

	// Delete the row; the list is empty again.
	status, _ = api.do(t, http.MethodDelete, "/books/"+entry.UserBook.ID, nil)
	require.Equal(t, http.StatusOK, status)

	status, raw = api.do(t, http.MethodGet, "/books", nil)
	require.Equal(t, http.StatusOK, status)
	decodeData(t, raw, &entries)
	assert.Empty(t, entries)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	api := newTestAPI(t)

	resp, err := http.Get(api.server.URL + "/books")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, api.server.URL+"/account", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)

	// Mismatched confirmation.
	status, raw := api.do(t, http.MethodPost, "/register", map[string]string{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "password123",
		"confirm_password": "different456",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	errType, _ := decodeError(t, raw)
	assert.Equal(t, "VALIDATION", errType)

	// Duplicate registration conflicts.
	api.register(t, "alice", "alice@example.com")
	status, raw = api.do(t, http.MethodPost, "/register", map[string]string{
		"username":         "alice",
		"email":            "other@example.com",
		"password":         "password123",
		"confirm_password": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)
	errType, _ = decodeError(t, raw)
	assert.Equal(t, "DUPLICATE", errType)
}

func TestLoginFailureIsUniform(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "alice", "alice@example.com")

	status, wrongPwRaw := api.do(t, http.MethodPost, "/login", map[string]string{
		"email": "alice@example.com", "password": "wrongwrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, noUserRaw := api.do(t, http.MethodPost, "/login", map[string]string{
		"email": "nobody@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	_, wrongPwMsg := decodeError(t, wrongPwRaw)
	_, noUserMsg := decodeError(t, noUserRaw)
	// The two failures are indistinguishable to the caller.
	assert.Equal(t, wrongPwMsg, noUserMsg)
}

func TestOwnershipEnforcedAcrossUsers(t *testing.T) {
	api := newTestAPI(t)

	api.register(t, "alice", "alice@example.com")
	api.login(t, "alice@example.com")

	status, raw := api.do(t, http.MethodPost, "/books", map[string]interface{}{"isbn": "9780441013593"})
	require.Equal(t, http.StatusCreated, status)
	var entry domain.LibraryEntry
	decodeData(t, raw, &entry)

	// Switch identity: bob logs in on the same client.
	api.register(t, "bob", "bob@example.com")
	api.login(t, "bob@example.com")

	status, _ = api.do(t, http.MethodGet, "/books/"+entry.UserBook.ID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = api.do(t, http.MethodDelete, "/books/"+entry.UserBook.ID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Bob's own library is empty.
	status, raw = api.do(t, http.MethodGet, "/books", nil)
	require.Equal(t, http.StatusOK, status)
	var entries []domain.LibraryEntry
	decodeData(t, raw, &entries)
	assert.Empty(t, entries)
}

func TestDeleteAccountCascades(t *testing.T) {
	api := newTestAPI(t)

	api.register(t, "alice", "alice@example.com")
	api.login(t, "alice@example.com")

	status, raw := api.do(t, http.MethodPost, "/books", map[string]interface{}{"isbn": "9780441013593"})
	require.Equal(t, http.StatusCreated, status)
	var entry domain.LibraryEntry
	decodeData(t, raw, &entry)

	status, _ = api.do(t, http.MethodDelete, "/account", nil)
	require.Equal(t, http.StatusOK, status)

	// Session is gone along with the account.
	status, _ = api.do(t, http.MethodGet, "/books", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// The row was cascaded; the shared book record stays.
	row, err := api.store.GetUserBook(context.Background(), entry.UserBook.ID)
	require.NoError(t, err)
	assert.Nil(t, row)

	book, err := api.store.GetBook(context.Background(), entry.Book.ID)
	require.NoError(t, err)
	assert.NotNil(t, book)
}

func TestUnknownEntryIs404(t *testing.T) {
	api := newTestAPI(t)

	api.register(t, "alice", "alice@example.com")
	api.login(t, "alice@example.com")

	status, raw := api.do(t, http.MethodGet, "/books/99999", nil)
	assert.Equal(t, http.StatusNotFound, status)
	errType, _ := decodeError(t, raw)
	assert.Equal(t, "NOT_FOUND", errType)
}

func TestInvalidBookPayloads(t *testing.T) {
	api := newTestAPI(t)

	api.register(t, "alice", "alice@example.com")
	api.login(t, "alice@example.com")

	status, _ := api.do(t, http.MethodPost, "/books", map[string]interface{}{
		"isbn": "9780441013593", "status": "reading",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodPost, "/books", map[string]interface{}{
		"isbn": "9780441013593", "rating": 11,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodPost, "/books", map[string]interface{}{
		"isbn": "12",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}
