// Package logging carries log context for sync firings.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger from the global logger with a component
// identifier under the "cmp" key.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// Attach returns base with the context hook installed.
func Attach(base zerolog.Logger) zerolog.Logger {
	return base.Hook(ContextHook{})
}
