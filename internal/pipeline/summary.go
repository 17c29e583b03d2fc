package pipeline

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"git.home.luguber.info/inful/prerender/internal/report"
)

// WriteSummary prints the human-readable run summary. It is printed for every
// run regardless of outcome.
func WriteSummary(w io.Writer, rep *report.BuildReport) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("prerender run " + rep.RunID)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Status", rep.Status},
		{"Terminal", rep.Terminal},
		{"Source connected", rep.SourceConnected},
		{"Pages generated", rep.PagesGenerated},
		{"Categories processed", rep.CategoriesProcessed},
		{"Pages changed", rep.PagesChanged},
		{"Errors", len(rep.Errors)},
		{"Warnings", len(rep.Warnings)},
		{"Fallbacks", len(rep.FallbacksUsed)},
	})
	if rep.QA != nil {
		t.AppendRow(table.Row{"QA score", fmt.Sprintf("%.2f", rep.QA.Score)})
		t.AppendRow(table.Row{"QA blocking / warnings", fmt.Sprintf("%d / %d", rep.QA.Blocking, rep.QA.Warnings)})
	}

	stages := make([]string, 0, len(rep.StageResults))
	for name := range rep.StageResults {
		stages = append(stages, name)
	}
	sort.Slice(stages, func(i, j int) bool { return stageOrder(stages[i]) < stageOrder(stages[j]) })
	if len(stages) > 0 {
		t.AppendSeparator()
		for _, name := range stages {
			t.AppendRow(table.Row{"stage " + name, fmt.Sprintf("%s (%s)", rep.StageResults[name], rep.StageDurations[name].Truncate(time.Millisecond))})
		}
	}
	t.Render()

	for _, e := range rep.Errors {
		if _, err := fmt.Fprintf(w, "error: %s\n", e); err != nil {
			return err
		}
	}
	for _, f := range rep.FallbacksUsed {
		if _, err := fmt.Fprintf(w, "fallback: %s\n", f); err != nil {
			return err
		}
	}
	return nil
}

func stageOrder(name string) int {
	defs := Stages(ModeFull)
	for i, def := range defs {
		if string(def.Name) == name {
			return i
		}
	}
	return len(defs)
}
