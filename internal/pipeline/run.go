package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
	"git.home.luguber.info/inful/prerender/internal/history"
	"git.home.luguber.info/inful/prerender/internal/logfields"
	"git.home.luguber.info/inful/prerender/internal/metrics"
	"git.home.luguber.info/inful/prerender/internal/notify"
	"git.home.luguber.info/inful/prerender/internal/report"
	"git.home.luguber.info/inful/prerender/internal/runlock"
	"git.home.luguber.info/inful/prerender/internal/source"
	"git.home.luguber.info/inful/prerender/internal/version"
)

// Mode selects which stages a run executes.
type Mode int

const (
	// ModeFull runs every stage through the publish gate.
	ModeFull Mode = iota
	// ModePrebuild stops after generation.
	ModePrebuild
)

// DefaultHistoryFile is the history database name inside the report directory.
const DefaultHistoryFile = "history.db"

// Runner executes runs for one configuration.
type Runner struct {
	cfg       *config.Config
	out       io.Writer
	source    source.Source
	recorder  metrics.Recorder
	history   history.Store
	notifier  *notify.Notifier
	newSource func(config.SourceConfig) (source.Source, error)
	newLock   func(config.LockConfig, string) (runlock.Lock, error)
	workDir   string
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where the summary table and QA issues are printed.
func WithOutput(w io.Writer) Option { return func(r *Runner) { r.out = w } }

// WithSource injects a data source instead of opening one from config. The
// Runner does not close injected sources.
func WithSource(src source.Source) Option { return func(r *Runner) { r.source = src } }

// WithRecorder injects a metrics recorder; metrics.textfile export is skipped.
func WithRecorder(rec metrics.Recorder) Option { return func(r *Runner) { r.recorder = rec } }

// WithHistory injects a history store. The Runner does not close it.
func WithHistory(store history.Store) Option { return func(r *Runner) { r.history = store } }

// WithNotifier injects a notifier instead of dialing notify.nats_url.
func WithNotifier(n *notify.Notifier) Option { return func(r *Runner) { r.notifier = n } }

// WithWorkDir sets the directory whose git HEAD is stamped into reports.
func WithWorkDir(dir string) Option { return func(r *Runner) { r.workDir = dir } }

// New creates a Runner.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg: cfg,
		out: os.Stdout,
		newSource: func(sc config.SourceConfig) (source.Source, error) {
			return source.New(sc, source.NewHTTPClient())
		},
		newLock: runlock.New,
		workDir: ".",
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Stages returns the ordered stage definitions for mode.
func Stages(mode Mode) []StageDef {
	full := mode == ModeFull
	return NewPipeline().
		Add(StageEnvironmentCheck, stageEnvironmentCheck).
		Add(StagePrebuild, stagePrebuild).
		AddIf(full, StageBuild, stageBuild).
		AddIf(full, StageQA, stageQA).
		AddIf(full, StagePublishValidate, stagePublishValidate).
		Build()
}

// Run executes one run. The returned report is always non-nil and has been
// persisted (when possible) and summarised before Run returns. The error is the
// fatal stage error, if any.
func (r *Runner) Run(ctx context.Context, mode Mode) (*report.BuildReport, error) {
	cfg := r.cfg
	rep := report.New(uuid.NewString())
	rep.Version = version.Version
	rep.Revision = version.SourceRevision(r.workDir)
	_ = rep.Advance(report.StatusRunning)

	log := slog.With(logfields.RunID(rep.RunID))
	log.Info("Run started", slog.String("mode", mode.String()), slog.String("output", cfg.Output.Directory))

	prev, err := report.LoadPrevious(cfg.Report.Directory)
	if err != nil {
		log.Warn("Ignoring unreadable previous report", logfields.Error(err))
	}

	st := &RunState{
		Config:    cfg,
		Report:    rep,
		out:       r.out,
		source:    r.source,
		newSource: r.newSource,
		newLock:   r.newLock,
	}

	rec, registry := r.metricsRecorder()
	observers := multiObserver{recorderObserver{rec: rec}}
	store, closeStore := r.historyStore(log)
	if store != nil {
		defer closeStore()
		hist := historyObserver{ctx: context.WithoutCancel(ctx), store: store, runID: rep.RunID}
		hist.append(history.Event{RunID: rep.RunID, Type: history.EventRunStarted}, map[string]any{"mode": mode.String()})
		observers = append(observers, hist)
	}

	runErr := RunStages(ctx, st, Stages(mode), observers)
	r.cleanup(context.WithoutCancel(ctx), st, log)

	rep.CountChanged(prev)
	if runErr != nil {
		rep.Fail(runErr)
		log.Error("Run aborted", logfields.Error(runErr))
	} else if err := rep.Complete(); err != nil {
		runErr = errors.WrapError(err, errors.CategoryInternal, "complete report").Build()
		rep.Fail(runErr)
	}
	rep.Finish()

	r.notify(context.WithoutCancel(ctx), rep, log)
	observers.OnRunComplete(rep)

	if registry != nil {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, registry); err != nil {
			log.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(err))
		}
	}

	if err := rep.Persist(cfg.Report.Directory); err != nil {
		log.Error("Failed to persist build report", logfields.Path(cfg.Report.Directory), logfields.Error(err))
		if runErr == nil {
			runErr = errors.FileSystemError("persist build report").WithCause(err).Fatal().Build()
		}
	}

	if err := WriteSummary(r.out, rep); err != nil {
		log.Warn("Failed to print summary", logfields.Error(err))
	}
	log.Info("Run finished", slog.String("summary", rep.Summary()))
	return rep, runErr
}

func (m Mode) String() string {
	if m == ModePrebuild {
		return "prebuild"
	}
	return "full"
}

func (r *Runner) metricsRecorder() (metrics.Recorder, *prom.Registry) {
	if r.recorder != nil {
		return r.recorder, nil
	}
	if r.cfg.Metrics.Textfile == "" {
		return metrics.NoopRecorder{}, nil
	}
	reg := prom.NewRegistry()
	return metrics.NewPrometheusRecorder(reg), reg
}

func (r *Runner) historyStore(log *slog.Logger) (history.Store, func()) {
	if r.history != nil {
		return r.history, func() {}
	}
	path := HistoryPath(r.cfg.Report)
	store, err := history.Open(path)
	if err != nil {
		log.Warn("Run history disabled", logfields.Path(path), logfields.Error(err))
		return nil, nil
	}
	return store, func() { _ = store.Close() }
}

// HistoryPath resolves the history database location.
func HistoryPath(rc config.ReportConfig) string {
	if rc.HistoryPath != "" {
		return rc.HistoryPath
	}
	return filepath.Join(rc.Directory, DefaultHistoryFile)
}

func (r *Runner) cleanup(ctx context.Context, st *RunState, log *slog.Logger) {
	if st.lock != nil {
		if err := st.lock.Release(ctx); err != nil {
			log.Warn("Failed to release run lock", logfields.Error(err))
		}
	}
	if st.ownSource && st.source != nil {
		if err := st.source.Close(); err != nil {
			log.Warn("Failed to close data source", logfields.Error(err))
		}
	}
}

// notify publishes the terminal event. Failures become report warnings and never
// change the run outcome.
func (r *Runner) notify(ctx context.Context, rep *report.BuildReport, log *slog.Logger) {
	n := r.notifier
	if n == nil {
		var err error
		n, err = notify.Connect(r.cfg.Notify)
		if err != nil {
			log.Warn("Run notification skipped", logfields.Error(err))
			rep.AddWarning("notify: %v", err)
			return
		}
		defer func() { _ = n.Close() }()
	}
	if err := n.RunCompleted(ctx, rep); err != nil {
		log.Warn("Run notification failed", logfields.Error(err))
		rep.AddWarning("notify: %v", err)
	}
}
