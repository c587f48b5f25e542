package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/sitepins/internal/config"
	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/metrics"
	"github.com/dmitrijs2005/sitepins/internal/stack"
	"github.com/dmitrijs2005/sitepins/internal/tracker"
)

// lifecycle is the part of the stack the session drives.
type lifecycle interface {
	Start(ctx context.Context) error
	Close(ctx context.Context) error
}

type App struct {
	tracker *tracker.Tracker
	stack   lifecycle
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	render  renderer
}

// NewApp builds the tracker stack for an interactive session on stdin and
// stdout.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	st, err := stack.Build(ctx, c, logger, metrics.Noop{})
	if err != nil {
		return nil, err
	}

	a := newApp(st.Tracker, logger, os.Stdin, os.Stdout, stdoutIsTerminal())
	a.stack = st
	return a, nil
}

func newApp(t *tracker.Tracker, logger logging.Logger, in io.Reader, out io.Writer, color bool) *App {
	return &App{
		tracker: t,
		logger:  logger.With("module", "cli"),
		reader:  bufio.NewReader(in),
		out:     out,
		render:  renderer{w: out, color: color},
	}
}

// Run loads the state, serves the REPL until the user leaves and then
// drains pending remote writes. The stack is closed even when loading fails.
func (a *App) Run(ctx context.Context) error {
	if a.stack != nil {
		defer func() {
			if err := a.stack.Close(context.WithoutCancel(ctx)); err != nil {
				a.logger.Error(ctx, "shutdown incomplete", "error", err)
			}
		}()
		if err := a.stack.Start(ctx); err != nil {
			return fmt.Errorf("failed to load state: %w", err)
		}
	}

	active, resolved := a.tracker.Counts()
	fmt.Fprintf(a.out, "%d active, %d resolved point(s). Type help for commands.\n", active, resolved)

	runREPL(ctx, a, a.reader, a.out)
	return nil
}
