package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/gitsync/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is read in the Before hook and available to all commands.
	// It has defaults applied but is only validated by Setup.
	Config *config.Config

	// Setup validates the config, opens the database and populates the
	// shared App. Commands that touch repositories or storage run it
	// from their own Before hook.
	Setup func(ctx context.Context) error
}

func (f *Flags) setup(ctx context.Context, _ *cli.Command) (context.Context, error) {
	if f.Setup == nil {
		return ctx, nil
	}
	return ctx, f.Setup(ctx)
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "gitsync", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "gitsync")
}
