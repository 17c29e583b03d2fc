package report

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/prerender/internal/logfields"
)

// PageKind distinguishes fixed pages from per-category pages.
type PageKind string

const (
	KindStatic   PageKind = "static"
	KindCategory PageKind = "category"
)

// PageStatus is the result of one generation attempt.
type PageStatus string

const (
	PageSuccess PageStatus = "success"
	PageError   PageStatus = "error"
)

// PageOutcome is recorded exactly once per attempted page.
type PageOutcome struct {
	FileName     string     `json:"file_name"`
	PublicPath   string     `json:"public_path"`
	Kind         PageKind   `json:"kind"`
	Status       PageStatus `json:"status"`
	SizeBytes    int64      `json:"size_bytes,omitempty"`
	Fingerprint  string     `json:"fingerprint,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Try runs one recoverable unit of work. A failure is logged and appended to
// Errors as "<unit>: <err>"; the error is returned so the caller can react,
// but it never propagates further on its own.
func (r *BuildReport) Try(unit string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	slog.Error("Unit of work failed", slog.String("unit", unit), logfields.Error(err))
	r.AddError("%s: %v", unit, err)
	return err
}

// Attempt generates one page through fn and records its PageOutcome. fn fills in
// size and fingerprint on success. Success increments PagesGenerated.
func (r *BuildReport) Attempt(fileName, publicPath string, kind PageKind, fn func(o *PageOutcome) error) PageOutcome {
	o := PageOutcome{FileName: fileName, PublicPath: publicPath, Kind: kind}
	err := r.Try(fmt.Sprintf("%s page %s", kind, fileName), func() error { return fn(&o) })
	if err != nil {
		o.Status = PageError
		o.SizeBytes = 0
		o.Fingerprint = ""
		o.ErrorMessage = err.Error()
	} else {
		o.Status = PageSuccess
		r.PagesGenerated++
		slog.Debug("Page generated", logfields.Page(fileName), logfields.Kind(string(kind)), slog.Int64("bytes", o.SizeBytes))
	}
	r.PerPageOutcomes = append(r.PerPageOutcomes, o)
	return o
}
