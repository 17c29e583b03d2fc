package qa

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temoto/robotstxt"
)

// checkArtifacts reports missing required top-level files as blocking, and
// validates the contents of the ones it knows how to read.
func checkArtifacts(dir string, required []string) []Issue {
	var issues []Issue
	for _, name := range required {
		data, err := os.ReadFile(filepath.Join(dir, name)) // #nosec G304 -- artifact names from config
		if err != nil {
			issues = append(issues, Issue{FileName: name, Severity: SeverityBlocking, Rule: "required-artifact",
				Message: fmt.Sprintf("required artifact %s is missing", name)})
			continue
		}
		if check, ok := artifactChecks[name]; ok {
			issues = append(issues, check(name, data)...)
		}
	}
	return issues
}

var artifactChecks = map[string]func(name string, data []byte) []Issue{
	"robots.txt":  checkRobots,
	"sitemap.xml": checkSitemap,
	"vercel.json": checkVercel,
	"_redirects":  checkRedirects,
}

func artifactIssue(name string, sev Severity, format string, args ...any) Issue {
	return Issue{FileName: name, Severity: sev, Rule: "artifact-content", Message: fmt.Sprintf(format, args...)}
}

func checkRobots(name string, data []byte) []Issue {
	robots, err := robotstxt.FromBytes(data)
	if err != nil {
		return []Issue{artifactIssue(name, SeverityBlocking, "robots policy does not parse: %v", err)}
	}
	var issues []Issue
	if !robots.TestAgent("/", "*") {
		issues = append(issues, artifactIssue(name, SeverityBlocking, "robots policy disallows the site root"))
	}
	if len(robots.Sitemaps) == 0 {
		issues = append(issues, artifactIssue(name, SeverityWarning, "robots policy does not reference a sitemap"))
	}
	return issues
}

func checkSitemap(name string, data []byte) []Issue {
	var set struct {
		URLs []struct {
			Loc string `xml:"loc"`
		} `xml:"url"`
	}
	if err := xml.Unmarshal(data, &set); err != nil {
		return []Issue{artifactIssue(name, SeverityBlocking, "sitemap is not valid XML: %v", err)}
	}
	if len(set.URLs) == 0 {
		return []Issue{artifactIssue(name, SeverityBlocking, "sitemap lists no URLs")}
	}
	return nil
}

func checkVercel(name string, data []byte) []Issue {
	var cfg struct {
		Rewrites []struct {
			Source      string `json:"source"`
			Destination string `json:"destination"`
		} `json:"rewrites"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return []Issue{artifactIssue(name, SeverityBlocking, "rewrite config is not valid JSON: %v", err)}
	}
	if n := len(cfg.Rewrites); n == 0 || cfg.Rewrites[n-1].Source != "/(.*)" {
		return []Issue{artifactIssue(name, SeverityWarning, "rewrites do not end with a catch-all rule")}
	}
	return nil
}

func checkRedirects(name string, data []byte) []Issue {
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	last := strings.Fields(lines[len(lines)-1])
	if len(last) == 0 || last[0] != "/*" {
		return []Issue{artifactIssue(name, SeverityWarning, "redirects do not end with a catch-all rule")}
	}
	return nil
}
