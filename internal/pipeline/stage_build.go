package pipeline

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

// stageBuild runs the optional external build command, then requires its output
// directory to exist.
func stageBuild(ctx context.Context, st *RunState) error {
	bc := st.Config.Build
	if argv := strings.Fields(bc.Command); len(argv) > 0 {
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) // #nosec G204 -- operator-configured build command
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return NewCanceledStageError(StageBuild, ctx.Err())
			}
			return NewFatalStageError(StageBuild, errors.RenderError("build command failed").
				WithCause(err).Fatal().WithContext("command", bc.Command).Build())
		}
	}

	info, err := os.Stat(bc.Directory)
	if err != nil || !info.IsDir() {
		return NewFatalStageError(StageBuild, errors.FileSystemError("build output directory is missing").
			WithCause(err).Fatal().WithContext("path", bc.Directory).Build())
	}
	return nil
}
