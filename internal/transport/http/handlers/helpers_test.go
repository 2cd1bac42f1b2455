package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cityhr/internal/app/server"
	"cityhr/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testEnv struct {
	t      *testing.T
	app    *server.App
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		Addr:                 "127.0.0.1:0",
		Environment:          "test",
		DatabaseURL:          "sqlite:" + filepath.Join(dir, "hr.db"),
		DataDir:              dir,
		ReportsDir:           filepath.Join(dir, "reports"),
		BackupDir:            filepath.Join(dir, "backups"),
		JWTSecret:            "test-secret",
		TokenTTL:             time.Hour,
		DataEncryptionKey:    "0123456789abcdef0123456789abcdef",
		SeedAdminUsername:    "admin",
		SeedAdminPassword:    "admin123",
		RunMigrations:        true,
		RunSeed:              true,
		MaxBodyBytes:         1048576,
		MaxUploadBytes:       4 * 1048576,
		RateLimitPerMinute:   1000,
		AnnualLeaveAllotment: 30,
		StorageBackend:       config.StorageLocal,
		OCRTesseractPath:     "cityhr-missing-tesseract",
		OCRPdftoppmPath:      "cityhr-missing-pdftoppm",
		OCRLanguage:          "fra",
		OCRTimeout:           time.Minute,
		MetricsEnabled:       true,
	}
	app, err := server.New(context.Background(), cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		app.Close()
	})
	return &testEnv{t: t, app: app, server: ts}
}

// do sends a JSON request and fails the test unless the response has status
// want.
func (e *testEnv) do(method, path, token string, body any, want int) envelope {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(req, want)
}

// upload sends a multipart form with the given text fields and one file part
// named fileField.
func (e *testEnv) upload(method, path, token string, fields map[string]string, fileField, fileName string, content []byte, want int) envelope {
	e.t.Helper()
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(e.t, form.WriteField(name, value))
	}
	if fileField != "" {
		part, err := form.CreateFormFile(fileField, fileName)
		require.NoError(e.t, err)
		_, err = part.Write(content)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, form.Close())

	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(req, want)
}

// download fetches a file endpoint and returns its body and disposition.
func (e *testEnv) download(path, token string) ([]byte, string) {
	e.t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(e.t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := e.server.Client().Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	require.Equal(e.t, http.StatusOK, resp.StatusCode, "GET %s: %s", path, body)
	return body, resp.Header.Get("Content-Disposition")
}

func (e *testEnv) send(req *http.Request, want int) envelope {
	e.t.Helper()
	resp, err := e.server.Client().Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	require.Equal(e.t, want, resp.StatusCode, "%s %s: %s", req.Method, req.URL.Path, raw)

	var env envelope
	if len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, &env), string(raw))
	}
	return env
}

func (e *testEnv) login(username, password string) string {
	e.t.Helper()
	env := e.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password}, http.StatusOK)
	var session struct {
		Token string `json:"token"`
	}
	decode(e.t, env, &session)
	require.NotEmpty(e.t, session.Token)
	return session.Token
}

func decode(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst), string(env.Data))
}
