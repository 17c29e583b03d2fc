package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r-1", RunID("r-1")},
		{"Stage", KeyStage, "prebuild", Stage("prebuild")},
		{"Status", KeyStatus, "running", Status("running")},
		{"Page", KeyPage, "about.html", Page("about.html")},
		{"Kind", KeyKind, "category", Kind("category")},
		{"Category", KeyCategory, "tech", Category("tech")},
		{"Artifact", KeyArtifact, "sitemap.xml", Artifact("sitemap.xml")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Fatalf("%s: key = %q, want %q", c.name, c.attr.Key, c.attrKey)
		}
		if got := c.attr.Value.String(); got != c.attrVal {
			t.Fatalf("%s: value = %q, want %q", c.name, got, c.attrVal)
		}
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Fatalf("nil error should render empty, got %q", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Fatalf("expected boom, got %q", got)
	}
	if a := Attempt(3); a.Value.Int64() != 3 {
		t.Fatalf("attempt value mismatch: %v", a.Value)
	}
}
