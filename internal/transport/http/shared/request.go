package shared

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"cityhr/internal/apperr"
	"cityhr/internal/transport/http/api"
)

// DecodeJSON decodes the request body into dst and writes a 400 on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload", requestID)
		return false
	}
	return true
}

// Upload is an optional file part of a multipart form.
type Upload struct {
	Name   string
	Reader io.Reader
	file   multipart.File
}

func (u *Upload) Close() {
	if u != nil && u.file != nil {
		u.file.Close()
	}
}

func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

// ParseMultipart reads a multipart form of at most maxBytes.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64, requestID string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload too large", requestID)
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_form", "invalid multipart form", requestID)
		return false
	}
	return true
}

// FormFile returns the named file part, or nil when the part is absent.
func FormFile(r *http.Request, field string) (*Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Invalid(field, "could not be read")
	}
	return &Upload{Name: header.Filename, Reader: file, file: file}, nil
}

// FormJSON decodes the JSON carried in a form field of a multipart request.
func FormJSON(r *http.Request, field string, dst any) error {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return apperr.Invalid(field, "must be a JSON object")
	}
	return nil
}

// ServeFile streams rc as an attachment named name.
func ServeFile(w http.ResponseWriter, rc io.ReadCloser, name string) {
	defer rc.Close()
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("stream file failed", "file", name, "err", err)
	}
}
