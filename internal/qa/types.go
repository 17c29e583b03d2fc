// Package qa validates generated documents and top-level artifacts against an SEO
// rule set. Blocking issues reject a release; warnings are reported only.
package qa

import (
	stderrors "errors"
	"fmt"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

// Severity splits findings into those that stop a release and those that do not.
type Severity int

const (
	// SeverityWarning is recorded but never blocks publishing.
	SeverityWarning Severity = iota
	// SeverityBlocking prevents publishing.
	SeverityBlocking
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityBlocking:
		return "blocking"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity name.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Issue is a single finding. FileName is relative to the validated directory.
type Issue struct {
	FileName string   `json:"file_name"`
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
}

// Outcome is the validator verdict.
type Outcome string

const (
	Accept             Outcome = "accept"
	AcceptWithWarnings Outcome = "accept_with_warnings"
	Reject             Outcome = "reject"
)

// ErrRejected is wrapped by Result.Err when blocking issues exist.
var ErrRejected = stderrors.New("qa rejected the release")

// Result holds every finding of one validation pass.
type Result struct {
	Directory        string
	Issues           []Issue
	DocumentsChecked int
}

// BlockingCount returns the number of blocking issues.
func (r *Result) BlockingCount() int { return r.count(SeverityBlocking) }

// WarningCount returns the number of warnings.
func (r *Result) WarningCount() int { return r.count(SeverityWarning) }

func (r *Result) count(s Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == s {
			n++
		}
	}
	return n
}

// Score is 100 with no blocking issues and strictly decreases as they grow:
// 100 * D / (D + B) with D = max(documents, 1).
func (r *Result) Score() float64 {
	d := max(r.DocumentsChecked, 1)
	b := r.BlockingCount()
	return 100 * float64(d) / float64(d+b)
}

// Outcome derives the verdict from the findings.
func (r *Result) Outcome() Outcome {
	switch {
	case r.BlockingCount() > 0:
		return Reject
	case r.WarningCount() > 0:
		return AcceptWithWarnings
	default:
		return Accept
	}
}

// Err returns a classified QA error wrapping ErrRejected, or nil when accepted.
func (r *Result) Err() error {
	if r.Outcome() != Reject {
		return nil
	}
	return errors.WrapError(ErrRejected, errors.CategoryQA,
		fmt.Sprintf("%d blocking issue(s) across %d document(s)", r.BlockingCount(), r.DocumentsChecked)).
		Fatal().
		WithContext("score", r.Score()).
		Build()
}
