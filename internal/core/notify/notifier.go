package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/gitsync/pkg/executil"
	"github.com/colonyops/gitsync/pkg/tmpl"
)

// Notifier delivers notifications. Delivery is fire-and-forget: failures are
// logged by the implementation and never returned to the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Log zerolog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) {
	var ev *zerolog.Event
	switch n.Level {
	case LevelError:
		ev = l.Log.Error()
	case LevelWarning:
		ev = l.Log.Warn()
	default:
		ev = l.Log.Info()
	}
	ev.Str("task", n.Task).Str("title", n.Title).Msg(n.Message)
}

// StoreNotifier persists notifications.
type StoreNotifier struct {
	Store Store
	Log   zerolog.Logger
}

func (s StoreNotifier) Notify(ctx context.Context, n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if _, err := s.Store.Save(ctx, n); err != nil {
		s.Log.Warn().Err(err).Str("task", n.Task).Msg("failed to persist notification")
	}
}

// CommandTemplateData defines available fields for the notification command template.
type CommandTemplateData struct {
	Title   string
	Message string
	Task    string
	Level   string
}

// CommandNotifier runs a shell command template for every notification,
// for example `notify-send {{ .Title | shq }} {{ .Message | shq }}`.
type CommandNotifier struct {
	command string
	run     func(ctx context.Context, dir, cmd string) error
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewCommandNotifier creates a notifier that renders and runs command.
func NewCommandNotifier(command string, log zerolog.Logger) *CommandNotifier {
	return &CommandNotifier{command: command, run: executil.RunSh, log: log}
}

// Notify renders the command and runs it in the background.
func (c *CommandNotifier) Notify(ctx context.Context, n Notification) {
	cmd, err := tmpl.Render(c.command, CommandTemplateData{
		Title:   n.Title,
		Message: n.Message,
		Task:    n.Task,
		Level:   string(n.Level),
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("render notify command")
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// Detached from the firing's context so delivery outlives a cancelled firing.
		if err := c.run(context.WithoutCancel(ctx), "", cmd); err != nil {
			c.log.Warn().Err(err).Msg("notify command failed")
		}
	}()
}

// Wait blocks until in-flight notification commands finish.
func (c *CommandNotifier) Wait() {
	c.wg.Wait()
}
