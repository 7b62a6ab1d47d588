package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsletter_server/services"
	"newsletter_server/structs"
	"newsletter_server/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	router    chi.Router
	cfg       *structs.Config
	store     *testutil.MemoryStore
	directory *testutil.StaticDirectory
	notifier  *testutil.RecordingNotifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	app := &testApp{
		cfg:       testutil.NewTestConfig(),
		store:     testutil.NewMemoryStore(),
		directory: testutil.NewStaticDirectory(),
		notifier:  &testutil.RecordingNotifier{},
	}
	service := services.NewNewsletterService(
		testutil.NewTestLogger(),
		app.cfg,
		app.store,
		app.directory,
		app.notifier,
		services.NewNewsletterMetrics(prometheus.NewRegistry()),
	)
	app.router = NewRouter(Dependencies{
		Config:     app.cfg,
		Newsletter: service,
	})
	return app
}

func (a *testApp) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	var out T
	require.NoError(t, json.Unmarshal(envelope.Data, &out))
	return out
}

func responseMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Message
}

func TestNewsletterFlow(t *testing.T) {
	app := newTestApp(t)
	app.directory.AddUser("user@example.com", "Acme")

	rec := app.do(t, "POST", "/unsubscribe", map[string]string{"email": "user@example.com", "reason": "Too many"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unsub := decodeData[structs.UnsubscribeResult](t, rec)
	assert.True(t, unsub.Success)
	assert.Len(t, unsub.ResubscribeToken, 64)

	rec = app.do(t, "GET", "/unsubscribe/"+unsub.ResubscribeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	verify := decodeData[structs.VerifyTokenResult](t, rec)
	assert.Equal(t, "user@example.com", verify.Email)
	assert.Equal(t, "Acme", verify.CompanyName)

	rec = app.do(t, "POST", "/resubscribe", map[string]string{"email": "user@example.com", "token": unsub.ResubscribeToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resub := decodeData[structs.ResubscribeResult](t, rec)
	assert.True(t, resub.Success)

	rec = app.do(t, "POST", "/resubscribe", map[string]string{"email": "user@example.com", "token": unsub.ResubscribeToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnsubscribe_InvalidBody(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing email", map[string]string{"reason": "x"}},
		{"bad email", map[string]string{"email": "not-an-email"}},
		{"unknown field", map[string]string{"email": "user@example.com", "foo": "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, "POST", "/unsubscribe", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Equal(t, 0, app.store.Len())
}

func TestUnsubscribe_UnknownAccount(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, "POST", "/unsubscribe", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnsubscribe_DirectoryOutage(t *testing.T) {
	app := newTestApp(t)
	app.directory.AddUser("user@example.com", "Acme")
	app.directory.Err = errors.New("connection refused")

	rec := app.do(t, "POST", "/unsubscribe", map[string]string{"email": "user@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, app.store.Len())
}

func TestUnsubscribe_NotificationFailure(t *testing.T) {
	app := newTestApp(t)
	app.directory.AddUser("user@example.com", "")
	app.notifier.Err = errors.New("smtp down")

	rec := app.do(t, "POST", "/unsubscribe", map[string]string{"email": "user@example.com"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "smtp down")
}

func TestResubscribe_InvalidTokenResponsesMatch(t *testing.T) {
	app := newTestApp(t)
	app.directory.AddUser("user@example.com", "")

	rec := app.do(t, "POST", "/unsubscribe", map[string]string{"email": "user@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeData[structs.UnsubscribeResult](t, rec).ResubscribeToken

	unknown := app.do(t, "POST", "/resubscribe", map[string]string{"email": "nobody@example.com", "token": token})
	wrong := app.do(t, "POST", "/resubscribe", map[string]string{"email": "user@example.com", "token": "deadbeef"})

	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, unknown.Code, wrong.Code)
	assert.Equal(t, responseMessage(t, unknown), responseMessage(t, wrong))
}

func TestVerifyToken_Unknown(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, "GET", "/unsubscribe/unknown-token", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatch_RequiresAdmin(t *testing.T) {
	app := newTestApp(t)
	body := map[string]any{"recipients": []string{"a@example.com"}, "subject": "Hi", "body": "Hello"}

	rec := app.do(t, "POST", "/internal/newsletter/dispatch", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userToken := testutil.GenerateToken(t, testutil.TestSecret, "user@example.com", "user", time.Hour)
	rec = app.do(t, "POST", "/internal/newsletter/dispatch", body, "Authorization", "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, app.notifier.Emails())
}

func TestDispatch_SkipsUnsubscribed(t *testing.T) {
	app := newTestApp(t)
	app.directory.AddUser("out@example.com", "")

	rec := app.do(t, "POST", "/unsubscribe", map[string]string{"email": "out@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	adminToken := testutil.GenerateToken(t, testutil.TestSecret, "admin@example.com", "admin", time.Hour)
	rec = app.do(t, "POST", "/internal/newsletter/dispatch",
		map[string]any{"recipients": []string{"in@example.com", "out@example.com"}, "subject": "Hi", "body": "Hello"},
		"Authorization", "Bearer "+adminToken,
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decodeData[structs.DispatchResult](t, rec)
	assert.Equal(t, []string{"in@example.com"}, result.Sent)
	assert.Equal(t, []string{"out@example.com"}, result.Skipped)
	assert.Empty(t, result.Failed)
}

func TestDispatch_InvalidBody(t *testing.T) {
	app := newTestApp(t)
	adminToken := testutil.GenerateToken(t, testutil.TestSecret, "admin@example.com", "admin", time.Hour)

	rec := app.do(t, "POST", "/internal/newsletter/dispatch",
		map[string]any{"recipients": []string{}, "subject": "Hi", "body": "Hello"},
		"Authorization", "Bearer "+adminToken,
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFound(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, "GET", "/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
