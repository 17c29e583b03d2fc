package commands

import (
	"context"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/pipeline"
	"git.home.luguber.info/inful/prerender/internal/preview"
)

// PreviewCmd serves the output directory, optionally regenerating on changes.
type PreviewCmd struct {
	Addr  string `name:"addr" default:":4173" help:"Listen address"`
	Dir   string `name:"dir" help:"Directory to serve (defaults to output.directory)" type:"path"`
	Watch bool   `help:"Re-run prebuild when pages, template or styles change"`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	dir := p.Dir
	if dir == "" {
		dir = cfg.Output.Directory
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv, err := preview.NewServer(dir)
	if err != nil {
		return err
	}

	if !p.Watch {
		return srv.ListenAndServe(ctx, p.Addr)
	}

	watched := watchDirs(cfg.Site)
	if len(watched) == 0 {
		slog.Warn("Nothing to watch: pages, template and styles are embedded")
		return srv.ListenAndServe(ctx, p.Addr)
	}
	runner := pipeline.New(cfg, pipeline.WithOutput(g.Out))
	rebuild := func(ctx context.Context) error {
		if _, err := runner.Run(ctx, pipeline.ModePrebuild); err != nil {
			return err
		}
		return srv.Reload()
	}

	watchErr := make(chan error, 1)
	go func() { watchErr <- preview.Watch(ctx, watched, rebuild) }()
	if err := srv.ListenAndServe(ctx, p.Addr); err != nil {
		cancel()
		<-watchErr
		return err
	}
	return <-watchErr
}

func watchDirs(sc config.SiteConfig) []string {
	seen := map[string]bool{}
	var dirs []string
	add := func(d string) {
		if d != "" && !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	add(sc.PagesDir)
	if sc.TemplatePath != "" {
		add(filepath.Dir(sc.TemplatePath))
	}
	if sc.StylesPath != "" {
		add(filepath.Dir(sc.StylesPath))
	}
	return dirs
}
