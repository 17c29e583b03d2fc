package pipeline

import (
	"context"
	"html/template"
	"os"

	"git.home.luguber.info/inful/prerender/internal/artifacts"
	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/fetch"
	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
	"git.home.luguber.info/inful/prerender/internal/pages"
	"git.home.luguber.info/inful/prerender/internal/render"
	"git.home.luguber.info/inful/prerender/internal/retry"
	"git.home.luguber.info/inful/prerender/internal/site"
)

// stagePrebuild generates every page and then the support artifacts. Only an
// unusable site input, an unusable output directory or a source outage without
// prior output aborts the run.
func stagePrebuild(ctx context.Context, st *RunState) error {
	cfg := st.Config

	tmpl, styles, defs, err := loadSiteInputs(cfg.Site)
	if err != nil {
		return NewFatalStageError(StagePrebuild, err)
	}

	if st.source == nil {
		src, err := st.newSource(cfg.Source)
		if err != nil {
			return NewFatalStageError(StagePrebuild, err)
		}
		st.source, st.ownSource = src, true
	}

	fetcher := fetch.New(st.source, retry.FromConfig(cfg.Retry), cfg.Output.Directory)
	gen := site.New(cfg.Output.Directory, cfg.Site, tmpl, styles, defs, fetcher)

	res, err := gen.GenerateAll(ctx, st.Report)
	if err != nil {
		if ctx.Err() != nil {
			return NewCanceledStageError(StagePrebuild, err)
		}
		return NewFatalStageError(StagePrebuild, err)
	}
	st.Fetch = res

	var retained []artifacts.Route
	if res.SkipCategories() {
		retained = site.RetainedRoutes(res.PriorDocuments)
	}
	artifacts.GenerateSupportFiles(st.Report, artifacts.Options{
		OutputDir: cfg.Output.Directory,
		Origin:    cfg.Site.Origin,
		RunDate:   st.Report.Start,
		Retained:  retained,
	})
	return nil
}

func loadSiteInputs(sc config.SiteConfig) (*template.Template, string, []pages.Definition, error) {
	tmpl := render.Default()
	if sc.TemplatePath != "" {
		t, err := render.Load(sc.TemplatePath)
		if err != nil {
			return nil, "", nil, errors.ConfigError("load document template").
				WithCause(err).WithContext("path", sc.TemplatePath).Build()
		}
		tmpl = t
	}

	var styles string
	if sc.StylesPath != "" {
		data, err := os.ReadFile(sc.StylesPath)
		if err != nil {
			return nil, "", nil, errors.ConfigError("read critical styles").
				WithCause(err).WithContext("path", sc.StylesPath).Build()
		}
		styles = string(data)
	}

	defs, err := pages.Load(sc.PagesDir)
	if err != nil {
		return nil, "", nil, errors.ConfigError("load fixed pages").
			WithCause(err).WithContext("path", sc.PagesDir).Build()
	}
	return tmpl, styles, defs, nil
}
