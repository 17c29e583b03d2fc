package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
	"git.home.luguber.info/inful/prerender/internal/history"
	"git.home.luguber.info/inful/prerender/internal/pipeline"
)

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli,
		kong.Name("prerender"),
		kong.Vars{"version": "test"},
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)
	require.NoError(t, err)
	return parser
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		command string
		check   func(t *testing.T, cli *CLI)
	}{
		{name: "run is the default", args: []string{}, command: "run"},
		{name: "prebuild", args: []string{"prebuild"}, command: "prebuild"},
		{
			name: "qa with format and dir", args: []string{"qa", "--format", "json", "dist"}, command: "qa",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, "json", cli.QA.Format)
				assert.True(t, filepath.IsAbs(cli.QA.Dir))
			},
		},
		{
			name: "preview defaults", args: []string{"preview"}, command: "preview",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, ":4173", cli.Preview.Addr)
				assert.False(t, cli.Preview.Watch)
			},
		},
		{
			name: "schedule interval", args: []string{"schedule", "--every", "30m"}, command: "schedule",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, 30*time.Minute, cli.Schedule.Every)
			},
		},
		{
			name: "history limit", args: []string{"history", "-n", "5"}, command: "history",
			check: func(t *testing.T, cli *CLI) {
				assert.Equal(t, 5, cli.History.Limit)
			},
		},
		{
			name: "global flags", args: []string{"-v", "--log-format", "json", "version"}, command: "version",
			check: func(t *testing.T, cli *CLI) {
				assert.True(t, cli.Verbose)
				assert.Equal(t, "json", cli.LogFormat)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PRERENDER_CONFIG", "")
			cli := &CLI{}
			ctx, err := newParser(t, cli).Parse(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.command, strings.Fields(ctx.Command())[0])
			if tt.check != nil {
				tt.check(t, cli)
			}
		})
	}
}

func TestParse_RejectsUnknownFormat(t *testing.T) {
	cli := &CLI{}
	_, err := newParser(t, cli).Parse([]string{"qa", "--format", "xml"})
	require.Error(t, err)
}

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prerender.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func TestQACmd_RejectsMissingArtifacts(t *testing.T) {
	dir := t.TempDir()
	root := &CLI{Config: writeConfig(t, "qa:\n  required_artifacts: [sitemap.xml]\n")}
	var out bytes.Buffer

	err := (&QACmd{Format: "text", Dir: dir}).Run(&Global{Out: &out}, root)
	require.Error(t, err)
	assert.Equal(t, errors.ExitRejected, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Contains(t, out.String(), "sitemap.xml")
}

func TestQACmd_AcceptsCompleteDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "robots.txt"), []byte("User-agent: *\nAllow: /\n"), 0o600))
	root := &CLI{Config: writeConfig(t, "qa:\n  required_artifacts: [robots.txt]\n")}
	var out bytes.Buffer

	require.NoError(t, (&QACmd{Format: "json", Dir: dir}).Run(&Global{Out: &out}, root))
	assert.Contains(t, out.String(), "{")
}

func TestLoadConfig_MissingFileIsConfigError(t *testing.T) {
	root := &CLI{Config: filepath.Join(t.TempDir(), "absent.yaml")}
	_, err := root.loadConfig()
	require.Error(t, err)
	assert.Equal(t, errors.ExitConfig, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestHistoryCmd(t *testing.T) {
	reports := t.TempDir()
	root := &CLI{Config: writeConfig(t, "report:\n  directory: "+reports+"\n")}

	var out bytes.Buffer
	require.NoError(t, (&HistoryCmd{Limit: 10}).Run(&Global{Out: &out}, root))
	assert.Contains(t, out.String(), "No runs recorded")

	store, err := history.Open(pipeline.HistoryPath(config.ReportConfig{Directory: reports}))
	require.NoError(t, err)
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRun(context.Background(), history.RunSummary{
		RunID: "0123456789abcdef", Status: "completed", Terminal: "completed",
		Started: started, Finished: started.Add(2 * time.Second), Pages: 12,
	}))
	require.NoError(t, store.Close())

	out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 10}).Run(&Global{Out: &out}, root))
	assert.Contains(t, out.String(), "01234567")
	assert.Contains(t, out.String(), "completed")
	assert.Contains(t, out.String(), "2s")
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, (&VersionCmd{}).Run(&Global{Out: &out}, &CLI{}))
	assert.Contains(t, out.String(), "prerender ")
}

func TestWatchDirs(t *testing.T) {
	dirs := watchDirs(config.SiteConfig{
		PagesDir:     "site/pages",
		TemplatePath: "site/page.html.tmpl",
		StylesPath:   "site/styles/critical.css",
	})
	assert.Equal(t, []string{"site/pages", "site", "site/styles"}, dirs)
	assert.Empty(t, watchDirs(config.SiteConfig{}))
}
