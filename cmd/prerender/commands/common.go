package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

// Global carries process-wide collaborators into every command.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags. Without a subcommand the full pipeline runs.
type CLI struct {
	Config    string           `short:"c" env:"PRERENDER_CONFIG" help:"Optional YAML configuration file" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" default:"text" enum:"text,json" help:"Log output format (text or json)"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run      RunCmd      `cmd:"" default:"1" help:"Run the full pipeline: generate, build, validate and gate publication"`
	Prebuild PrebuildCmd `cmd:"" help:"Generate pages and support artifacts only"`
	QA       QACmd       `cmd:"" name:"qa" help:"Validate a generated output directory"`
	Preview  PreviewCmd  `cmd:"" help:"Serve the output directory locally with hosting rewrites applied"`
	Schedule ScheduleCmd `cmd:"" help:"Run the full pipeline periodically until interrupted"`
	History  HistoryCmd  `cmd:"" help:"Show recent runs from the history database"`
	About    VersionCmd  `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(slog.New(newHandler(os.Stderr, c.LogFormat, c.Verbose)))
	return nil
}

func newHandler(w io.Writer, format string, verbose bool) slog.Handler {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, errors.ConfigError("load configuration").WithCause(err).
			WithContext("path", c.Config).Build()
	}
	return cfg, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
