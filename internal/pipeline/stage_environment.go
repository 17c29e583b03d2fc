package pipeline

import (
	"context"
)

// stageEnvironmentCheck validates required configuration and takes the run lock
// on the output directory. Both failures are fatal.
func stageEnvironmentCheck(ctx context.Context, st *RunState) error {
	if err := st.Config.Validate(); err != nil {
		return NewFatalStageError(StageEnvironmentCheck, err)
	}

	lock, err := st.newLock(st.Config.Lock, st.Config.Output.Directory)
	if err != nil {
		return NewFatalStageError(StageEnvironmentCheck, err)
	}
	if err := lock.Acquire(ctx); err != nil {
		return NewFatalStageError(StageEnvironmentCheck, err)
	}
	st.lock = lock
	return nil
}
