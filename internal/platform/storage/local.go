package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cityhr/internal/apperr"
)

type Local struct {
	Root string
}

// NewLocal creates the content areas below root.
func NewLocal(root string) (*Local, error) {
	for _, area := range Areas {
		if err := os.MkdirAll(filepath.Join(root, area), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", apperr.ErrIO, area, err)
		}
	}
	return &Local{Root: root}, nil
}

func (l *Local) Path(ref string) (string, error) {
	if err := validRef(ref); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return filepath.Join(l.Root, filepath.FromSlash(ref)), nil
}

func (l *Local) Save(ctx context.Context, area, name string, r io.Reader) (string, error) {
	ref := Ref(area, name)
	dest, err := l.Path(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	return ref, nil
}

func (l *Local) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	p, err := l.Path(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: file %s", apperr.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	return f, nil
}

// Delete removes the file. A missing file is not an error.
func (l *Local) Delete(ctx context.Context, ref string) error {
	p, err := l.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	return nil
}
