package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"

	"github.com/colonyops/gitsync/internal/core/task"
	"github.com/colonyops/gitsync/pkg/tmpl"
)

// Validate checks that the configuration is valid. All problems are collected
// and returned together as criterio.FieldErrors.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.GitPath == "" {
		errs = errs.Append("git_path", fmt.Errorf("cannot be empty"))
	}
	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("cannot be empty"))
	}
	if strings.TrimSpace(c.Branch) == "" {
		errs = errs.Append("branch", fmt.Errorf("cannot be empty"))
	}
	if strings.TrimSpace(c.Remote) == "" {
		errs = errs.Append("remote", fmt.Errorf("cannot be empty"))
	}
	if c.Workers < 1 {
		errs = errs.Append("workers", fmt.Errorf("must be at least 1"))
	}

	if c.Notify.Command != "" {
		if _, err := tmpl.Render(c.Notify.Command, notifyTemplateSample); err != nil {
			errs = errs.Append("notify.command", fmt.Errorf("template error: %w", err))
		}
	}

	seen := make(map[string]int, len(c.Tasks))
	paths := make(map[string]int, len(c.Tasks))
	for i, t := range c.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)
		if t.Name != "" {
			field = fmt.Sprintf("tasks[%q]", t.Name)
			if first, dup := seen[t.Name]; dup {
				errs = errs.Append(field+".name", fmt.Errorf("duplicate task name, first defined at tasks[%d]", first))
			} else {
				seen[t.Name] = i
			}
		}

		// Two tasks on one directory would commit and push over each other.
		if strings.TrimSpace(t.Path) != "" {
			dir := filepath.Clean(t.Path)
			if first, dup := paths[dir]; dup {
				errs = errs.Append(field+".path", fmt.Errorf("directory %s already used by tasks[%d]", dir, first))
			} else {
				paths[dir] = i
			}
		}

		errs = t.validate(field, errs)
	}

	return errs.ToError()
}

// notifyTemplateSample mirrors the fields available to notify.command.
var notifyTemplateSample = map[string]any{
	"Title":   "",
	"Message": "",
	"Task":    "",
	"Level":   "",
}

func (t TaskConfig) validate(field string, errs criterio.FieldErrorsBuilder) criterio.FieldErrorsBuilder {
	if strings.TrimSpace(t.Name) == "" {
		errs = errs.Append(field+".name", fmt.Errorf("is required"))
	}
	if strings.TrimSpace(t.Repo) == "" {
		errs = errs.Append(field+".repo", fmt.Errorf("is required"))
	}

	if err := validateTaskPath(t.Path); err != nil {
		errs = errs.Append(field+".path", err)
	}

	if strings.TrimSpace(t.Cron) == "" {
		errs = errs.Append(field+".cron", fmt.Errorf("is required"))
	} else if _, err := task.ParseCron(t.Cron); err != nil {
		errs = errs.Append(field+".cron", err)
	}

	for j, p := range t.Ignore {
		if !validPattern(p) {
			errs = errs.Append(fmt.Sprintf("%s.ignore[%d]", field, j), fmt.Errorf("invalid pattern %q", p))
		}
	}
	for j, p := range t.LFS {
		if !validPattern(p) {
			errs = errs.Append(fmt.Sprintf("%s.lfs[%d]", field, j), fmt.Errorf("invalid pattern %q", p))
		}
	}

	return errs
}

// validateTaskPath requires an absolute path to an existing directory.
func validateTaskPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("is required")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("contains invalid characters")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("must be an absolute path: %s", path)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is a file, not a directory", path)
	}
	return nil
}

// validPattern accepts gitignore-style patterns. A leading "!" negation and
// trailing "/" directory marker are gitignore syntax, not glob syntax.
func validPattern(p string) bool {
	p = strings.TrimSpace(p)
	if p == "" {
		return false
	}
	p = strings.TrimPrefix(p, "!")
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return false
	}
	return doublestar.ValidatePattern(p)
}

// ValidateDeep performs Validate and then checks the environment: the git
// executable must be resolvable and the data directory usable.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("git_path", c.GitPath, gitExecutableExists),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("not found: %s", configPath))
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// gitExecutableExists validates that the git path is executable.
func gitExecutableExists(path string) error {
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("executable not found: %s", path)
	}
	return nil
}

// isDirectoryOrNotExist validates that path is a directory or does not exist yet.
func isDirectoryOrNotExist(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
