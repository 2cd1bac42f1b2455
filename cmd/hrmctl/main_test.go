package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("DATABASE_URL", "sqlite:"+filepath.Join(dir, "hr.db"))
	t.Setenv("REPORTS_DIR", filepath.Join(dir, "reports"))
	t.Setenv("BACKUP_DIR", filepath.Join(dir, "backups"))
	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func TestUserAddAndList(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "migrate", "--seed")
	require.NoError(t, err)

	out, err := execute(t, "user", "add", "agent", "--password", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "created agent (user)\n", out)

	out, err = execute(t, "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "admin\tadmin")
	assert.Contains(t, out, "agent\tuser")

	_, err = execute(t, "user", "add", "agent", "--password", "secret123")
	assert.Error(t, err)
}

func TestBackupAndReport(t *testing.T) {
	dir := setupEnv(t)

	out, err := execute(t, "backup")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "backups", "hr_backup_"))

	out, err = execute(t, "report", "--kind", "staff_list", "--format", "xlsx")
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.True(t, strings.HasSuffix(path, ".xlsx"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = execute(t, "report", "--kind", "payslips")
	assert.Error(t, err)
}
