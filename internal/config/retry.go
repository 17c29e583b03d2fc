package config

import "git.home.luguber.info/inful/prerender/internal/foundation/normalization"

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffModes = normalization.NewEnum("retry mode", map[string]RetryBackoffMode{
	string(RetryBackoffFixed):       RetryBackoffFixed,
	string(RetryBackoffLinear):      RetryBackoffLinear,
	string(RetryBackoffExponential): RetryBackoffExponential,
})

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	mode, _ := retryBackoffModes.Normalize(raw)
	return mode
}

// SourceDriver selects the data source implementation.
type SourceDriver string

const (
	SourceDriverREST     SourceDriver = "rest"
	SourceDriverPostgres SourceDriver = "postgres"
)

var sourceDrivers = normalization.NewEnum("source driver", map[string]SourceDriver{
	string(SourceDriverREST):     SourceDriverREST,
	"postgrest":                  SourceDriverREST,
	string(SourceDriverPostgres): SourceDriverPostgres,
	"postgresql":                 SourceDriverPostgres,
})

// NormalizeSourceDriver maps a driver name onto a known driver. Unknown names
// are returned unchanged so validation can report them.
func NormalizeSourceDriver(raw string) SourceDriver {
	if d, ok := sourceDrivers.Normalize(raw); ok {
		return d
	}
	return SourceDriver(raw)
}
