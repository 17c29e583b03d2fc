package config

import (
	stderrors "errors"
	"net/url"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

// Validate performs the environment check: required external configuration must be
// present and thresholds must be coherent. Every failure is a fatal config error.
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return errors.ConfigError("data source endpoint is not configured").
			WithContext("env", EnvSourceURL).Build()
	}
	switch c.Source.Driver {
	case SourceDriverREST:
		if c.Source.Key == "" {
			return errors.ConfigError("data source access key is not configured").
				WithContext("env", EnvSourceKey).Build()
		}
		if _, err := parseAbsoluteURL(c.Source.URL); err != nil {
			return errors.ConfigError("data source endpoint is not an absolute URL").
				WithCause(err).WithContext("env", EnvSourceURL).Build()
		}
	case SourceDriverPostgres:
		// the DSN may carry its own credentials
	default:
		_, err := sourceDrivers.Parse(string(c.Source.Driver))
		return errors.ConfigError("unknown data source driver").WithCause(err).
			WithContext("driver", string(c.Source.Driver)).Build()
	}
	if _, err := parseAbsoluteURL(c.Site.Origin); err != nil {
		return errors.ConfigError("site origin is not an absolute URL").
			WithCause(err).WithContext("env", EnvSiteOrigin).Build()
	}
	if c.QA.TitleMin >= c.QA.TitleMax {
		return errors.ConfigError("qa.title_min must be below qa.title_max").Build()
	}
	if c.QA.DescriptionMin >= c.QA.DescriptionMax {
		return errors.ConfigError("qa.description_min must be below qa.description_max").Build()
	}
	if c.Retry.Mode == "" {
		return errors.ConfigError("unknown retry mode").
			WithContext("valid", retryBackoffModes.ValidValues()).Build()
	}
	return nil
}

var errNotAbsolute = stderrors.New("scheme and host required")

func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: raw, Err: errNotAbsolute}
	}
	return u, nil
}
