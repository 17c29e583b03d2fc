package pipeline

import (
	"io"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/fetch"
	"git.home.luguber.info/inful/prerender/internal/qa"
	"git.home.luguber.info/inful/prerender/internal/report"
	"git.home.luguber.info/inful/prerender/internal/runlock"
	"git.home.luguber.info/inful/prerender/internal/source"
)

// RunState is the explicit context threaded through every stage of one run. It
// is created per run and never shared between runs.
type RunState struct {
	Config *config.Config
	Report *report.BuildReport

	// Fetch is the categorised fetch outcome of the prebuild stage.
	Fetch fetch.Result
	// QA is the validator result of the qa stage.
	QA *qa.Result

	out       io.Writer
	source    source.Source
	ownSource bool
	lock      runlock.Lock
	newSource func(config.SourceConfig) (source.Source, error)
	newLock   func(config.LockConfig, string) (runlock.Lock, error)
}
