package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: ExitOK},
		{name: "config", err: ConfigError("missing PRERENDER_SOURCE_URL").Build(), expected: ExitConfig},
		{name: "qa rejection", err: QAError("2 blocking issues").Build(), expected: ExitRejected},
		{name: "publish gate", err: PublishError("sitemap.xml missing").Build(), expected: ExitPublish},
		{name: "source", err: SourceError("unreachable").Build(), expected: ExitSource},
		{name: "lock", err: LockError("held").Build(), expected: ExitLock},
		{name: "filesystem", err: FileSystemError("disk full").Build(), expected: ExitGeneration},
		{name: "wrapped classified", err: fmt.Errorf("stage: %w", QAError("rejected").Build()), expected: ExitRejected},
		{name: "unclassified", err: errors.New("boom"), expected: ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := ConfigError("missing source url").WithCause(errors.New("env empty")).Build()

	quiet := NewCLIErrorAdapter(false, nil)
	assert.Equal(t, "Error (config): missing source url", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Contains(t, verbose.FormatError(err), "env empty")
	assert.Empty(t, verbose.FormatError(nil))
}
