// Package ocr extracts text from scanned images and PDFs with the tesseract
// and pdftoppm command line tools.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"cityhr/internal/apperr"
	"cityhr/internal/platform/config"
)

var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif"}

type Engine struct {
	TesseractPath string
	PdftoppmPath  string
	Language      string
	Timeout       time.Duration

	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func New(cfg config.Config) *Engine {
	return &Engine{
		TesseractPath: cfg.OCRTesseractPath,
		PdftoppmPath:  cfg.OCRPdftoppmPath,
		Language:      cfg.OCRLanguage,
		Timeout:       cfg.OCRTimeout,
		lookPath:      exec.LookPath,
		run:           runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Supported reports whether path has an extension Extract accepts.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pdf" || slices.Contains(ImageExtensions, ext)
}

// Available reports whether the recognition binaries can be found.
func (e *Engine) Available() error {
	if _, err := e.lookPath(e.TesseractPath); err != nil {
		return fmt.Errorf("%w: tesseract not found (%s)", apperr.ErrEngineUnavailable, e.TesseractPath)
	}
	return nil
}

// Extract returns the recognised text of path. PDF pages are rasterised
// first and each page is prefixed with a "--- PAGE n ---" line. An empty
// string means nothing was recognised.
func (e *Engine) Extract(ctx context.Context, path string) (string, error) {
	if !Supported(path) {
		return "", apperr.Invalid("file", "must be a PDF or an image")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
		}
		return "", fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	if err := e.Available(); err != nil {
		return "", err
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	start := time.Now()
	var (
		text string
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err = e.extractPDF(ctx, path)
	} else {
		text, err = e.recognise(ctx, path)
	}
	if err != nil {
		return "", err
	}
	slog.Info("ocr extraction finished", "file", filepath.Base(path), "chars", len(text), "durationMs", time.Since(start).Milliseconds())
	return strings.TrimSpace(text), nil
}

func (e *Engine) recognise(ctx context.Context, image string) (string, error) {
	out, err := e.run(ctx, e.TesseractPath, image, "stdout", "-l", e.Language)
	if err != nil {
		return "", commandError("tesseract", err)
	}
	return string(out), nil
}

func (e *Engine) extractPDF(ctx context.Context, path string) (string, error) {
	if _, err := e.lookPath(e.PdftoppmPath); err != nil {
		return "", fmt.Errorf("%w: pdftoppm not found (%s)", apperr.ErrEngineUnavailable, e.PdftoppmPath)
	}
	dir, err := os.MkdirTemp("", "cityhr-ocr-")
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	defer os.RemoveAll(dir)

	if _, err := e.run(ctx, e.PdftoppmPath, "-png", "-r", "300", path, filepath.Join(dir, "page")); err != nil {
		return "", commandError("pdftoppm", err)
	}
	pages, err := filepath.Glob(filepath.Join(dir, "page*.png"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	slices.Sort(pages)

	var b strings.Builder
	for i, page := range pages {
		text, err := e.recognise(ctx, page)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "--- PAGE %d ---\n%s\n\n", i+1, strings.TrimSpace(text))
	}
	return b.String(), nil
}

func commandError(tool string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s: %v", apperr.ErrEngineUnavailable, tool, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out", apperr.ErrIO, tool)
	}
	return fmt.Errorf("%w: %s: %v", apperr.ErrIO, tool, err)
}
