package qa

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter writes a validation result.
type Formatter interface {
	Format(w io.Writer, result *Result) error
}

// NewFormatter returns the JSON formatter for "json" and the text formatter otherwise.
func NewFormatter(format string) Formatter {
	if strings.EqualFold(format, "json") {
		return &JSONFormatter{}
	}
	return &TextFormatter{}
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

func (f *TextFormatter) Format(w io.Writer, result *Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Validating output in: %s\n", result.Directory)
	b.WriteString(strings.Repeat("━", 60) + "\n")

	// Issues keep discovery order, which is already grouped by file.
	for _, is := range result.Issues {
		icon := "⚠"
		if is.Severity == SeverityBlocking {
			icon = "✗"
		}
		fmt.Fprintf(&b, "%s %s\n  %s [%s]: %s\n", icon, is.FileName, strings.ToUpper(is.Severity.String()), is.Rule, is.Message)
	}

	b.WriteString(strings.Repeat("━", 60) + "\n")
	fmt.Fprintf(&b, "Results:\n  %d documents checked\n", result.DocumentsChecked)
	if n := result.BlockingCount(); n > 0 {
		fmt.Fprintf(&b, "  %d blocking issue%s\n", n, pluralize(n))
	}
	if n := result.WarningCount(); n > 0 {
		fmt.Fprintf(&b, "  %d warning%s\n", n, pluralize(n))
	}
	fmt.Fprintf(&b, "  score %.2f\n\n", result.Score())

	switch result.Outcome() {
	case Reject:
		b.WriteString("✗ Release rejected: fix blocking issues before publishing.\n")
	case AcceptWithWarnings:
		b.WriteString("⚠ Release accepted with warnings.\n")
	default:
		b.WriteString("✓ All documents pass validation.\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	Directory        string  `json:"directory"`
	Outcome          Outcome `json:"outcome"`
	Score            float64 `json:"score"`
	DocumentsChecked int     `json:"documents_checked"`
	BlockingCount    int     `json:"blocking_count"`
	WarningCount     int     `json:"warning_count"`
	Issues           []Issue `json:"issues"`
}

func (f *JSONFormatter) Format(w io.Writer, result *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(JSONOutput{
		Directory:        result.Directory,
		Outcome:          result.Outcome(),
		Score:            result.Score(),
		DocumentsChecked: result.DocumentsChecked,
		BlockingCount:    result.BlockingCount(),
		WarningCount:     result.WarningCount(),
		Issues:           result.Issues,
	})
}
