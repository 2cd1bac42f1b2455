// Package storage keeps uploaded attachments (documents, photos, mail scans)
// on the local disk or in an S3 compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cityhr/internal/platform/config"
)

// Content areas.
const (
	AreaDocuments = "documents"
	AreaPhotos    = "photos"
	AreaMail      = "mail"
	AreaBackups   = "backups"
)

var Areas = []string{AreaDocuments, AreaPhotos, AreaMail}

// Store saves and serves attachment bytes. References returned by Save are
// slash separated ("documents/doc_..."), and are what the records keep.
type Store interface {
	Save(ctx context.Context, area, name string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// Name builds the stored file name <prefix>_<owner>_<yyyymmdd_hhmmss>_<base>.
func Name(prefix, ownerID, original string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	owner := strings.ReplaceAll(ownerID, "/", "_")
	return fmt.Sprintf("%s_%s_%s_%s", prefix, owner, now.Format("20060102_150405"), base)
}

// Ref joins an area and a file name into a reference.
func Ref(area, name string) string {
	return path.Join(area, name)
}

func validRef(ref string) error {
	clean := path.Clean(ref)
	if ref == "" || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("invalid file reference %q", ref)
	}
	return nil
}

// New returns the backend selected by cfg.
func New(ctx context.Context, cfg config.Config) (Store, error) {
	if cfg.StorageBackend == config.StorageS3 {
		return NewS3(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return NewLocal(cfg.DataDir)
}
