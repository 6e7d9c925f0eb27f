// Package lifecycle wraps command and stage execution with timing and
// observer notification. It has no goroutines and no dependencies.
package lifecycle

import (
	"context"
	"time"
)

// Run executes fn between OnStart and OnComplete and returns fn's error
// unchanged. A nil observer only runs fn. Observer panics are recovered.
func Run(obs Observer, name string, fn func() error) error {
	notifyStart(obs, name)
	start := time.Now()
	err := fn()
	notifyComplete(obs, name, err, time.Since(start))
	return err
}

// RunWithContext is Run for context-aware steps. A context that is already
// done skips fn and reports ctx.Err() as the step's error.
func RunWithContext(ctx context.Context, obs Observer, name string, fn func(context.Context) error) error {
	notifyStart(obs, name)
	start := time.Now()
	if err := ctx.Err(); err != nil {
		notifyComplete(obs, name, err, time.Since(start))
		return err
	}
	err := fn(ctx)
	notifyComplete(obs, name, err, time.Since(start))
	return err
}

func notifyStart(obs Observer, name string) {
	if obs == nil {
		return
	}
	defer func() { _ = recover() }()
	obs.OnStart(name)
}

func notifyComplete(obs Observer, name string, err error, d time.Duration) {
	if obs == nil {
		return
	}
	defer func() { _ = recover() }()
	obs.OnComplete(name, err, d)
}
