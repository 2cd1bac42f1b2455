// Package system covers store maintenance: instance info, backups and
// restores of the embedded database file.
package system

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"cityhr/internal/apperr"
	"cityhr/internal/domain/auth"
	"cityhr/internal/domain/core"
	"cityhr/internal/platform/db"
	"cityhr/internal/platform/metrics"
	"cityhr/internal/platform/storage"
)

type Info struct {
	Employees      int    `json:"employees"`
	Users          int    `json:"users"`
	Driver         string `json:"driver"`
	DatabaseBytes  int64  `json:"databaseBytes"`
	StorageBackend string `json:"storageBackend"`
	Time           string `json:"time"`
}

type Backup struct {
	FileName  string    `json:"fileName"`
	Path      string    `json:"path,omitempty"`
	SizeBytes int64     `json:"sizeBytes"`
	StoredRef string    `json:"storedRef,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type RestoreResult struct {
	Source          string `json:"source"`
	RestartRequired bool   `json:"restartRequired"`
}

type Options struct {
	DBPath         string
	BackupDir      string
	StorageBackend string
	// Offsite pushes every backup into the attachment store as well.
	Offsite bool
}

type Service struct {
	DB        *sqlx.DB
	Users     *auth.Store
	Employees *core.Service
	Files     storage.Store
	Metrics   *metrics.Collector
	opts      Options
	now       func() time.Time
}

func NewService(conn *sqlx.DB, users *auth.Store, employees *core.Service, files storage.Store, collector *metrics.Collector, opts Options) *Service {
	return &Service{
		DB:        conn,
		Users:     users,
		Employees: employees,
		Files:     files,
		Metrics:   collector,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *Service) Info(ctx context.Context) (Info, error) {
	employees, err := s.Employees.Count(ctx)
	if err != nil {
		return Info{}, err
	}
	users, err := s.Users.Count(ctx)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Employees:      employees,
		Users:          users,
		Driver:         s.DB.DriverName(),
		StorageBackend: s.opts.StorageBackend,
		Time:           s.now().Format(time.RFC3339),
	}
	if s.DB.DriverName() == db.DriverSQLite {
		info.DatabaseBytes = db.FileSize(s.opts.DBPath)
	}
	return info, nil
}

// Backup copies the database file into the backup directory.
func (s *Service) Backup(ctx context.Context) (Backup, error) {
	path, err := db.Backup(ctx, s.DB, s.opts.DBPath, s.opts.BackupDir, s.now())
	if err != nil {
		return Backup{}, err
	}
	out := Backup{
		FileName:  filepath.Base(path),
		Path:      path,
		SizeBytes: db.FileSize(path),
		CreatedAt: s.now().UTC(),
	}
	if s.opts.Offsite && s.Files != nil {
		ref, err := s.pushOffsite(ctx, path)
		if err != nil {
			slog.Warn("offsite backup copy failed", "file", out.FileName, "err", err)
		} else {
			out.StoredRef = ref
		}
	}
	s.Metrics.Inc(metrics.BackupsTaken)
	slog.Info("database backup written", "file", out.FileName, "sizeBytes", out.SizeBytes, "storedRef", out.StoredRef)
	return out, nil
}

func (s *Service) pushOffsite(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	defer f.Close()
	return s.Files.Save(ctx, storage.AreaBackups, filepath.Base(path), f)
}

// ListBackups returns the backups on disk, newest first.
func (s *Service) ListBackups() ([]Backup, error) {
	entries, err := os.ReadDir(s.opts.BackupDir)
	if os.IsNotExist(err) {
		return []Backup{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	out := []Backup{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Backup{FileName: entry.Name(), SizeBytes: info.Size(), CreatedAt: info.ModTime().UTC()})
	}
	slices.SortFunc(out, func(a, b Backup) int { return strings.Compare(b.FileName, a.FileName) })
	return out, nil
}

// RestoreNamed restores a backup from the backup directory.
func (s *Service) RestoreNamed(name string) (RestoreResult, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return RestoreResult{}, apperr.Invalid("name", "is not a backup file name")
	}
	return s.Restore(filepath.Join(s.opts.BackupDir, name))
}

// Restore replaces the database file with src. The new data is visible after
// a restart.
func (s *Service) Restore(src string) (RestoreResult, error) {
	if s.DB.DriverName() != db.DriverSQLite {
		return RestoreResult{}, fmt.Errorf("%w: restore is only available for the embedded store", apperr.ErrValidation)
	}
	if err := db.Restore(src, s.opts.DBPath); err != nil {
		return RestoreResult{}, err
	}
	slog.Warn("database restored, restart required", "source", filepath.Base(src))
	return RestoreResult{Source: filepath.Base(src), RestartRequired: true}, nil
}
