package ocrhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityhr/internal/apperr"
	"cityhr/internal/domain/auth"
	"cityhr/internal/platform/metrics"
	"cityhr/internal/transport/http/middleware"
)

type fakeEngine struct {
	text string
	err  error
	seen []byte
}

func (f *fakeEngine) Available() error { return f.err }

func (f *fakeEngine) Extract(_ context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	f.seen = data
	return f.text, nil
}

func upload(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/ocr", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", Role: auth.RoleUser}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newRouter(engine Extractor, collector *metrics.Collector) http.Handler {
	r := chi.NewRouter()
	NewHandler(engine, collector, auth.StaticPermissions{}, 1<<20).RegisterRoutes(r)
	return r
}

func TestExtractReturnsText(t *testing.T) {
	engine := &fakeEngine{text: "Arrêté municipal n° 12"}
	collector := metrics.New()
	rec := upload(t, newRouter(engine, collector), "scan.png", []byte("image-bytes"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env struct {
		Data result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Arrêté municipal n° 12", env.Data.Text)
	assert.Equal(t, 22, env.Data.Characters)
	assert.False(t, env.Data.Empty)
	assert.Equal(t, []byte("image-bytes"), engine.seen)
	assert.Equal(t, uint64(1), collector.Snapshot()[metrics.OCRExtractions])
}

func TestExtractErrors(t *testing.T) {
	rec := upload(t, newRouter(&fakeEngine{}, nil), "notes.docx", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	unavailable := &fakeEngine{err: fmt.Errorf("%w: tesseract not found", apperr.ErrEngineUnavailable)}
	rec = upload(t, newRouter(unavailable, nil), "scan.pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
