package commands

import (
	"fmt"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
	"git.home.luguber.info/inful/prerender/internal/qa"
)

// QACmd implements the 'qa' command: validation only, no generation.
type QACmd struct {
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Dir    string `arg:"" optional:"" help:"Directory to validate (defaults to qa.directory)" type:"path"`
}

func (q *QACmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	dir := q.Dir
	if dir == "" {
		dir = cfg.QA.Directory
	}

	result, err := qa.NewValidator(cfg.QA).Validate(dir)
	if err != nil {
		return errors.FileSystemError("read qa directory").WithCause(err).
			WithContext("path", dir).Build()
	}
	if err := qa.NewFormatter(q.Format).Format(g.Out, result); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return result.Err()
}
