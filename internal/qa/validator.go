package qa

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/logfields"
)

// Validator runs document and artifact rules over an output directory. It never
// modifies what it reads.
type Validator struct {
	rules    []Rule
	required []string
	exclude  []string
}

// NewValidator creates a validator from the QA configuration.
func NewValidator(cfg config.QAConfig) *Validator {
	return &Validator{
		rules:    DefaultRules(cfg),
		required: cfg.RequiredArtifacts,
		exclude:  cfg.Exclude,
	}
}

// WithRules replaces the document rule set.
func (v *Validator) WithRules(rules ...Rule) *Validator {
	v.rules = rules
	return v
}

// Validate checks every *.html document under dir, then the required artifacts.
// Documents are visited in lexical order so results are deterministic.
func (v *Validator) Validate(dir string) (*Result, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	result := &Result{Directory: dir, Issues: []Issue{}}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if slices.Contains(v.exclude, rel) {
			return nil
		}
		return v.checkFile(path, rel, result)
	})
	if err != nil {
		return result, err
	}

	result.Issues = append(result.Issues, checkArtifacts(dir, v.required)...)
	slog.Info("QA finished",
		logfields.Path(dir),
		slog.Int("documents", result.DocumentsChecked),
		slog.Int("blocking", result.BlockingCount()),
		slog.Int("warnings", result.WarningCount()),
		slog.Float64("score", result.Score()))
	return result, nil
}

func (v *Validator) checkFile(path, rel string, result *Result) error {
	content, err := os.ReadFile(path) // #nosec G304 -- walking the output directory
	if err != nil {
		return err
	}
	result.DocumentsChecked++
	doc, err := ParseDocument(rel, content)
	if err != nil {
		result.Issues = append(result.Issues, Issue{FileName: rel, Severity: SeverityBlocking, Rule: "parse", Message: err.Error()})
		return nil
	}
	for _, rule := range v.rules {
		result.Issues = append(result.Issues, rule.Check(doc)...)
	}
	return nil
}
