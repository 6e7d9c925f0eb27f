package runner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cctools/cctest/internal/classify"
	"github.com/cctools/cctest/internal/fixture"
	"github.com/cctools/cctest/internal/workspace"
)

// Job is one fixture run in a batch.
type Job struct {
	Fixture   *fixture.Fixture
	Artifacts workspace.Artifacts
	Options   Options
}

// Report pairs a job with its outcome. Outcome is nil when the fixture did
// not compile; Err then holds the compile error.
type Report struct {
	Job     Job
	Outcome *classify.Outcome
	Err     error
}

// RunAll runs jobs with at most parallel engines at once. Runs are
// independent: a failing run neither cancels nor affects the others.
// Reports are returned in job order.
func (r *Runner) RunAll(ctx context.Context, jobs []Job, parallel int) []Report {
	if parallel < 1 {
		parallel = 1
	}

	reports := make([]Report, len(jobs))
	var g errgroup.Group
	g.SetLimit(parallel)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			outcome, err := r.Run(ctx, job.Fixture, job.Artifacts, job.Options)
			reports[i] = Report{Job: job, Outcome: outcome, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return reports
}
