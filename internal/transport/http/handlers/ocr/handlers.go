package ocrhandler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"cityhr/internal/apperr"
	"cityhr/internal/domain/auth"
	"cityhr/internal/platform/metrics"
	"cityhr/internal/platform/ocr"
	"cityhr/internal/transport/http/api"
	"cityhr/internal/transport/http/middleware"
	"cityhr/internal/transport/http/shared"
)

type Extractor interface {
	Available() error
	Extract(ctx context.Context, path string) (string, error)
}

type Handler struct {
	Engine    Extractor
	Metrics   *metrics.Collector
	Perms     middleware.PermissionStore
	MaxUpload int64
}

func NewHandler(engine Extractor, collector *metrics.Collector, perms middleware.PermissionStore, maxUpload int64) *Handler {
	return &Handler{Engine: engine, Metrics: collector, Perms: perms, MaxUpload: maxUpload}
}

type result struct {
	FileName   string `json:"fileName"`
	Text       string `json:"text"`
	Characters int    `json:"characters"`
	Empty      bool   `json:"empty"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ocr", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermOCRUse, h.Perms))
		r.Get("/status", h.handleStatus)
		r.Post("/", h.handleExtract)
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"available": true}
	if err := h.Engine.Available(); err != nil {
		status = map[string]any{"available": false, "reason": err.Error()}
	}
	api.Success(w, status, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if !shared.ParseMultipart(w, r, h.MaxUpload, requestID) {
		return
	}
	upload, err := shared.FormFile(r, "file")
	if err != nil {
		shared.WriteError(w, err, "ocr_failed", requestID)
		return
	}
	if upload == nil {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "file", Reason: "is required"}})
		return
	}
	defer upload.Close()
	if !ocr.Supported(upload.Name) {
		shared.WriteError(w, apperr.Invalid("file", "must be a PDF or an image"), "ocr_failed", requestID)
		return
	}

	path, cleanup, err := spool(upload)
	if err != nil {
		shared.WriteError(w, err, "ocr_failed", requestID)
		return
	}
	defer cleanup()

	text, err := h.Engine.Extract(r.Context(), path)
	if err != nil {
		shared.WriteError(w, err, "ocr_failed", requestID)
		return
	}
	h.Metrics.Inc(metrics.OCRExtractions)
	api.Success(w, result{
		FileName:   filepath.Base(upload.Name),
		Text:       text,
		Characters: len([]rune(text)),
		Empty:      strings.TrimSpace(text) == "",
	}, requestID)
}

// spool copies the upload to a temporary file keeping its extension, since
// the engine picks the pipeline from it.
func spool(upload *shared.Upload) (string, func(), error) {
	f, err := os.CreateTemp("", "cityhr-upload-*"+strings.ToLower(filepath.Ext(upload.Name)))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	cleanup := func() { os.Remove(f.Name()) }
	if _, err := io.Copy(f, upload.Reader); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	return f.Name(), cleanup, nil
}
