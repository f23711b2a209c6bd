package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Tasks = []TaskConfig{
		{
			Name:   "docs",
			Path:   t.TempDir(),
			Repo:   "git@example.com:me/docs.git",
			Cron:   "*/5 * * * *",
			Ignore: []string{"*.tmp"},
		},
	}
	return &cfg
}

func fieldErrors(t *testing.T, err error) criterio.FieldErrors {
	t.Helper()
	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	return fieldErrs
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig(t).Validate())
}

func TestValidate_NoTasksIsStructurallyValid(t *testing.T) {
	cfg := validConfig(t)
	cfg.Tasks = nil
	assert.NoError(t, cfg.Validate())
}

func TestValidate_TaskErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name      string
		mutate    func(tc *TaskConfig)
		wantField string
		wantErr   string
	}{
		{"missing name", func(tc *TaskConfig) { tc.Name = "" }, "tasks[0].name", "is required"},
		{"missing repo", func(tc *TaskConfig) { tc.Repo = "" }, `tasks["docs"].repo`, "is required"},
		{"missing path", func(tc *TaskConfig) { tc.Path = "" }, `tasks["docs"].path`, "is required"},
		{"relative path", func(tc *TaskConfig) { tc.Path = "docs" }, `tasks["docs"].path`, "absolute"},
		{"missing directory", func(tc *TaskConfig) { tc.Path = "/nonexistent-dir-12345" }, `tasks["docs"].path`, "does not exist"},
		{"path is a file", func(tc *TaskConfig) { tc.Path = file }, `tasks["docs"].path`, "not a directory"},
		{"missing cron", func(tc *TaskConfig) { tc.Cron = "" }, `tasks["docs"].cron`, "is required"},
		{"invalid cron", func(tc *TaskConfig) { tc.Cron = "every minute" }, `tasks["docs"].cron`, "parse cron"},
		{"invalid ignore pattern", func(tc *TaskConfig) { tc.Ignore = []string{"[unclosed"} }, `tasks["docs"].ignore[0]`, "invalid pattern"},
		{"blank lfs pattern", func(tc *TaskConfig) { tc.LFS = []string{"  "} }, `tasks["docs"].lfs[0]`, "invalid pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg.Tasks[0])

			errs := fieldErrors(t, cfg.Validate())
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantField, errs[0].Field)
			assert.Contains(t, errs[0].Err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_GitignoreSyntaxAccepted(t *testing.T) {
	cfg := validConfig(t)
	cfg.Tasks[0].Ignore = []string{"build/", "!keep.tmp", "**/node_modules", "*.log"}
	cfg.Tasks[0].LFS = []string{"*.psd", "assets/**/*.png"}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_DuplicateNames(t *testing.T) {
	cfg := validConfig(t)
	dup := cfg.Tasks[0]
	dup.Path = t.TempDir()
	cfg.Tasks = append(cfg.Tasks, dup)

	errs := fieldErrors(t, cfg.Validate())
	require.Len(t, errs, 1)
	assert.Equal(t, `tasks["docs"].name`, errs[0].Field)
	assert.Contains(t, errs[0].Err.Error(), "duplicate")
}

func TestValidate_DuplicatePaths(t *testing.T) {
	cfg := validConfig(t)
	dup := cfg.Tasks[0]
	dup.Name = "docs-mirror"
	dup.Path = cfg.Tasks[0].Path + string(filepath.Separator) + "."
	cfg.Tasks = append(cfg.Tasks, dup)

	errs := fieldErrors(t, cfg.Validate())
	require.Len(t, errs, 1)
	assert.Equal(t, `tasks["docs-mirror"].path`, errs[0].Field)
	assert.Contains(t, errs[0].Err.Error(), "already used by tasks[0]")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Workers = 0
	cfg.Tasks[0].Cron = "bad"
	cfg.Tasks[0].Repo = ""

	errs := fieldErrors(t, cfg.Validate())
	assert.Len(t, errs, 3)
}

func TestValidate_NotifyCommandTemplate(t *testing.T) {
	cfg := validConfig(t)
	cfg.Notify.Command = "notify-send {{ .Title | shq }} {{ .Message | shq }}"
	require.NoError(t, cfg.Validate())

	cfg.Notify.Command = "notify-send {{ .Unknown }}"
	errs := fieldErrors(t, cfg.Validate())
	require.Len(t, errs, 1)
	assert.Equal(t, "notify.command", errs[0].Field)
}

func TestValidateDeep(t *testing.T) {
	t.Run("missing git executable", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.GitPath = "nonexistent-git-12345"

		errs := fieldErrors(t, cfg.ValidateDeep(""))
		require.Len(t, errs, 1)
		assert.Equal(t, "git_path", errs[0].Field)
	})

	t.Run("config path is a directory", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.GitPath = "sh" // any resolvable executable

		errs := fieldErrors(t, cfg.ValidateDeep(t.TempDir()))
		require.Len(t, errs, 1)
		assert.Equal(t, "config_file", errs[0].Field)
	})

	t.Run("structural errors short circuit", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Tasks[0].Cron = "bad"

		errs := fieldErrors(t, cfg.ValidateDeep(""))
		require.Len(t, errs, 1)
		assert.Equal(t, `tasks["docs"].cron`, errs[0].Field)
	})
}
