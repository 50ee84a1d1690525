package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	echoapi "github.com/edusuite/gradebook/apps/api/echo"
	"github.com/edusuite/gradebook/core"
	testutil "github.com/edusuite/gradebook/tests"
)

func setup(t *testing.T) (*testutil.Env, echoapi.Server) {
	t.Helper()

	env := testutil.NewEnv()
	validate, translator := core.NewValidator()

	app := echoapi.NewServer(
		&echoapi.Options{
			DisableReqLogs: true,
			Conf:           &core.Config{TestMode: true},
			Logger:         core.NopLogger{},
			GradebookSvc:   env.Svc,
			OrderSvc:       env.OrderSvc,
			NotifySvc:      env.NotifySvc,
			Directory:      env.Directory,
			Validate:       validate,
			Translator:     translator,
		},
	)
	return env, app
}

func newRequest(t *testing.T, method, path, userID string, body interface{}) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	return req, httptest.NewRecorder()
}

func do(t *testing.T, app echoapi.Server, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newRequest(t, method, path, userID, body)
	app.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}
