package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
	"git.home.luguber.info/inful/prerender/internal/history"
	"git.home.luguber.info/inful/prerender/internal/pipeline"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of runs to show"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	path := pipeline.HistoryPath(cfg.Report)
	store, err := history.Open(path)
	if err != nil {
		return errors.FileSystemError("open history database").WithCause(err).
			WithContext("path", path).Build()
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	runs, err := store.RecentRuns(ctx, h.Limit)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "query run history").Build()
	}
	writeRuns(g.Out, runs)
	return nil
}

func writeRuns(w io.Writer, runs []history.RunSummary) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "No runs recorded")
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Run", "Status", "Finished", "Duration", "Pages", "Errors", "Warnings", "Fallbacks", "QA score"})
	for _, r := range runs {
		score := "-"
		if r.Score != nil {
			score = fmt.Sprintf("%.2f", *r.Score)
		}
		tw.AppendRow(table.Row{
			shortID(r.RunID), r.Status, r.Finished.Format(time.RFC3339),
			r.Finished.Sub(r.Started).Round(time.Millisecond), r.Pages, r.Errors, r.Warnings, r.Fallbacks, score,
		})
	}
	tw.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
