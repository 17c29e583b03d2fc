package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
	"git.home.luguber.info/inful/prerender/internal/pipeline"
	"git.home.luguber.info/inful/prerender/internal/schedule"
)

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	Every time.Duration `default:"6h" help:"Interval between full runs"`
}

func (s *ScheduleCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	runner := pipeline.New(cfg, pipeline.WithOutput(g.Out))
	err = schedule.Run(ctx, s.Every, func(ctx context.Context) error {
		_, err := runner.Run(ctx, pipeline.ModeFull)
		return err
	})
	if err != nil {
		return errors.InternalError("scheduler").WithCause(err).Build()
	}
	return nil
}
