package lifecycle

import "time"

// Observer is notified around each wrapped step. The runner's progress
// reporter and tests implement it.
type Observer interface {
	// OnStart is called before the step runs.
	OnStart(name string)
	// OnComplete is called after the step with its error and duration.
	OnComplete(name string, err error, duration time.Duration)
}
