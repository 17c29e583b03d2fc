package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/prerender/internal/fsutil"
)

// File names written by Persist.
const (
	JSONFileName    = "build-report.json"
	SummaryFileName = "build-report.txt"
)

// Serializable mirrors BuildReport with stable JSON field names.
type Serializable struct {
	SchemaVersion       int                      `json:"schema_version"`
	RunID               string                   `json:"run_id"`
	Status              Status                   `json:"status"`
	Terminal            string                   `json:"terminal,omitempty"`
	SourceConnected     bool                     `json:"source_connected"`
	PagesGenerated      int                      `json:"pages_generated"`
	CategoriesProcessed int                      `json:"categories_processed"`
	PagesChanged        int                      `json:"pages_changed"`
	Errors              []string                 `json:"errors"`
	Warnings            []string                 `json:"warnings"`
	FallbacksUsed       []string                 `json:"fallbacks_used"`
	PerPageOutcomes     []PageOutcome            `json:"per_page_outcomes"`
	Artifacts           []string                 `json:"artifacts"`
	StageDurations      map[string]time.Duration `json:"stage_durations"`
	StageResults        map[string]string        `json:"stage_results"`
	QA                  *QASummary               `json:"qa,omitempty"`
	Start               time.Time                `json:"start"`
	End                 time.Time                `json:"end"`
	Version             string                   `json:"version,omitempty"`
	Revision            string                   `json:"revision,omitempty"`
}

// SanitizedCopy returns a JSON-friendly copy with non-nil slices and maps.
func (r *BuildReport) SanitizedCopy() *Serializable {
	return &Serializable{
		SchemaVersion:       r.SchemaVersion,
		RunID:               r.RunID,
		Status:              r.Status,
		Terminal:            r.Terminal,
		SourceConnected:     r.SourceConnected,
		PagesGenerated:      r.PagesGenerated,
		CategoriesProcessed: r.CategoriesProcessed,
		PagesChanged:        r.PagesChanged,
		Errors:              nonNil(r.Errors),
		Warnings:            nonNil(r.Warnings),
		FallbacksUsed:       nonNil(r.FallbacksUsed),
		PerPageOutcomes:     nonNil(r.PerPageOutcomes),
		Artifacts:           nonNil(r.Artifacts),
		StageDurations:      nonNilMap(r.StageDurations),
		StageResults:        nonNilMap(r.StageResults),
		QA:                  r.QA,
		Start:               r.Start,
		End:                 r.End,
		Version:             r.Version,
		Revision:            r.Revision,
	}
}

// Persist writes the report atomically into root:
//
//	build-report.json  (machine readable)
//	build-report.txt   (human summary)
func (r *BuildReport) Persist(root string) error {
	r.Finish()
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := fsutil.WriteAtomic(filepath.Join(root, JSONFileName), jb, 0o600); err != nil {
		return fmt.Errorf("write report json: %w", err)
	}
	if err := fsutil.WriteAtomic(filepath.Join(root, SummaryFileName), []byte(r.Summary()+"\n"), 0o600); err != nil {
		return fmt.Errorf("write report summary: %w", err)
	}
	return nil
}

// LoadPrevious reads the last persisted report from root. A missing file yields (nil, nil).
func LoadPrevious(root string) (*Serializable, error) {
	data, err := os.ReadFile(filepath.Join(root, JSONFileName)) // #nosec G304 -- report dir from config
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var prev Serializable
	if err := json.Unmarshal(data, &prev); err != nil {
		return nil, fmt.Errorf("decode previous report: %w", err)
	}
	return &prev, nil
}

// CountChanged compares fingerprints of successful outcomes against a previous
// report and stores the number of new or modified pages in PagesChanged.
func (r *BuildReport) CountChanged(prev *Serializable) {
	known := make(map[string]string)
	if prev != nil {
		for _, o := range prev.PerPageOutcomes {
			if o.Status == PageSuccess {
				known[o.FileName] = o.Fingerprint
			}
		}
	}
	changed := 0
	for _, o := range r.SuccessfulOutcomes() {
		if fp, ok := known[o.FileName]; !ok || fp != o.Fingerprint {
			changed++
		}
	}
	r.PagesChanged = changed
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nonNilMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
