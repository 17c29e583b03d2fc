package config

import "time"

// Default values applied when neither file nor environment sets a field.
const (
	DefaultSiteOrigin     = "https://backlinks.market"
	DefaultSiteName       = "Backlinks Market"
	DefaultOutputDir      = "public"
	DefaultReportDir      = ".prerender"
	DefaultTitleMin       = 20
	DefaultTitleMax       = 70
	DefaultDescriptionMin = 50
	DefaultDescriptionMax = 160
	DefaultLockKey        = "prerender:run"
	DefaultNotifySubject  = "prerender.run.completed"
)

// DefaultRequiredArtifacts are the top-level files the publish gate insists on.
var DefaultRequiredArtifacts = []string{"sitemap.xml", "robots.txt", "vercel.json", "_redirects"}

func applyDefaults(cfg *Config) {
	if cfg.Source.Driver == "" {
		cfg.Source.Driver = SourceDriverREST
	} else {
		cfg.Source.Driver = NormalizeSourceDriver(string(cfg.Source.Driver))
	}
	if cfg.Site.Origin == "" {
		cfg.Site.Origin = DefaultSiteOrigin
	}
	if cfg.Site.Name == "" {
		cfg.Site.Name = DefaultSiteName
	}
	if cfg.Site.Language == "" {
		cfg.Site.Language = "en"
	}
	if cfg.Site.Currency == "" {
		cfg.Site.Currency = "USD"
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	// Without an external build the prebuild output is what gets published.
	if cfg.Build.Directory == "" {
		cfg.Build.Directory = cfg.Output.Directory
	}
	if cfg.QA.Directory == "" {
		cfg.QA.Directory = cfg.Build.Directory
	}
	if cfg.QA.TitleMin == 0 {
		cfg.QA.TitleMin = DefaultTitleMin
	}
	if cfg.QA.TitleMax == 0 {
		cfg.QA.TitleMax = DefaultTitleMax
	}
	if cfg.QA.DescriptionMin == 0 {
		cfg.QA.DescriptionMin = DefaultDescriptionMin
	}
	if cfg.QA.DescriptionMax == 0 {
		cfg.QA.DescriptionMax = DefaultDescriptionMax
	}
	if len(cfg.QA.RequiredArtifacts) == 0 {
		cfg.QA.RequiredArtifacts = append([]string(nil), DefaultRequiredArtifacts...)
	}
	if cfg.Retry.Mode == "" {
		cfg.Retry.Mode = RetryBackoffExponential
	} else {
		cfg.Retry.Mode = NormalizeRetryBackoff(string(cfg.Retry.Mode))
	}
	if cfg.Retry.Initial == 0 {
		cfg.Retry.Initial = 500 * time.Millisecond
	}
	if cfg.Retry.Max == 0 {
		cfg.Retry.Max = 5 * time.Second
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 2
	}
	if cfg.Retry.AttemptTimeout == 0 {
		cfg.Retry.AttemptTimeout = 10 * time.Second
	}
	if cfg.Lock.Key == "" {
		cfg.Lock.Key = DefaultLockKey
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = 30 * time.Minute
	}
	if cfg.Report.Directory == "" {
		cfg.Report.Directory = DefaultReportDir
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
}
