package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

// stagePublishValidate is the last gate before release: every required artifact
// must exist as a non-empty file in the build directory.
func stagePublishValidate(_ context.Context, st *RunState) error {
	missing := MissingArtifacts(st.Config.Build.Directory, st.Config.QA.RequiredArtifacts)
	if len(missing) == 0 {
		return nil
	}
	return NewFatalStageError(StagePublishValidate,
		errors.PublishError("required artifacts missing: "+strings.Join(missing, ", ")).
			WithContext("missing", missing).Build())
}

// MissingArtifacts returns the names in required that are absent, empty or not
// regular files under dir.
func MissingArtifacts(dir string, required []string) []string {
	var missing []string
	for _, name := range required {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
			missing = append(missing, name)
		}
	}
	return missing
}
