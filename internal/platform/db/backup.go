package db

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"cityhr/internal/apperr"
)

var sqliteHeader = []byte("SQLite format 3\x00")

// BackupName returns the file name used for a backup taken at now.
func BackupName(now time.Time) string {
	return "hr_backup_" + now.Format("20060102_150405") + ".db"
}

// Backup checkpoints the write-ahead log and copies the whole database file
// into destDir. It returns the path of the copy.
func Backup(ctx context.Context, conn *sqlx.DB, dbPath, destDir string, now time.Time) (string, error) {
	if conn.DriverName() != DriverSQLite {
		return "", fmt.Errorf("%w: backup is only available for the embedded store", apperr.ErrValidation)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return "", fmt.Errorf("%w: checkpoint: %v", apperr.ErrIO, err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	dest := filepath.Join(destDir, BackupName(now))
	if err := copyFile(dbPath, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Restore replaces the database file with src. The running process keeps the
// previous file open; the restored data is visible after a restart.
func Restore(src, dbPath string) error {
	if err := checkSQLiteFile(src); err != nil {
		return err
	}
	tmp := dbPath + ".restore"
	if err := copyFile(src, tmp); err != nil {
		return err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: %v", apperr.ErrIO, err)
		}
	}
	if err := os.Rename(tmp, dbPath); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	return nil
}

// FileSize reports the size of the database file in bytes.
func FileSize(dbPath string) int64 {
	info, err := os.Stat(dbPath)
	if err != nil {
		return 0
	}
	return info.Size()
}

func checkSQLiteFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: backup file %s", apperr.ErrNotFound, path)
		}
		return fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	defer f.Close()
	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, sqliteHeader) {
		return fmt.Errorf("%w: %s is not a database backup", apperr.ErrValidation, filepath.Base(path))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", apperr.ErrNotFound, src)
		}
		return fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrIO, err)
	}
	return nil
}
