package commands

import (
	"git.home.luguber.info/inful/prerender/internal/pipeline"
)

// RunCmd implements the default full pipeline.
type RunCmd struct{}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	return runPipeline(g, root, pipeline.ModeFull)
}

// PrebuildCmd implements the 'prebuild' command.
type PrebuildCmd struct{}

func (p *PrebuildCmd) Run(g *Global, root *CLI) error {
	return runPipeline(g, root, pipeline.ModePrebuild)
}

func runPipeline(g *Global, root *CLI, mode pipeline.Mode) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	_, err = pipeline.New(cfg, pipeline.WithOutput(g.Out)).Run(ctx, mode)
	return err
}
