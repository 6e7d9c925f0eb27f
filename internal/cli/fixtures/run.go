package fixtures

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cctools/cctest/internal/classify"
	"github.com/cctools/cctest/internal/cli/shared"
	"github.com/cctools/cctest/internal/config"
	"github.com/cctools/cctest/internal/engine"
	apperrors "github.com/cctools/cctest/internal/errors"
	"github.com/cctools/cctest/internal/fixture"
	"github.com/cctools/cctest/internal/history"
	"github.com/cctools/cctest/internal/notify"
	"github.com/cctools/cctest/internal/replay"
	"github.com/cctools/cctest/internal/runner"
	"github.com/cctools/cctest/internal/workspace"
)

// Output formats for run results on stdout.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

type runOptions struct {
	outputXML      string
	rawOutput      string
	showOutput     bool
	app            string
	restore        string
	minimalRestore bool
	domain         string
	timeout        int
	parallel       int
	format         string
	engineArgs     []string
}

// launcherFor builds the engine launcher from configuration. Tests replace it.
var launcherFor = func(ctx context.Context, cfg *config.Configuration) (engine.Launcher, error) {
	if cfg.CLIJar == "" {
		return nil, apperrors.CLIJarNotConfigured()
	}
	if _, err := os.Stat(cfg.CLIJar); err != nil {
		return nil, apperrors.ArtifactMissing("commcare-cli jar", cfg.CLIJar, "Check cli_jar in the config or CCTEST_CLI_JAR", err)
	}

	java := cfg.JavaCmd
	if java == "" {
		found, err := engine.FindJava()
		if err != nil {
			return nil, apperrors.JavaNotFound(engine.MinJavaVersion)
		}
		java = found
	}
	if _, err := engine.CheckJava(ctx, java); err != nil {
		return nil, apperrors.WrapWithMessage(err, apperrors.Prerequisite, err.Error(),
			fmt.Sprintf("Install Java %d or newer", engine.MinJavaVersion),
			"Point java_cmd in the config at a newer java")
	}
	return &engine.JavaLauncher{JavaCmd: java, JarPath: cfg.CLIJar}, nil
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <fixture.yaml>...",
		Short: "Run fixtures against the CommCare engine",
		Long: `Run one or more fixtures against the commcare-cli engine.

Each fixture is validated, compiled into a replay script, played through a
fresh engine process, and classified as pass, fail or error. Fixtures run
independently; with several fixtures up to --parallel engines run at once.

Exit codes:
  0  every fixture passed
  1  at least one fixture failed
  2  a tooling error (crash, engine fault, output not writable)
  3  an invalid fixture or argument
  4  a missing dependency (java, commcare-cli jar, app or restore)
  5  a run timed out`,
		Example: `  # Run one fixture and keep the completed form
  cctest run tests/intake.yaml --output-xml out/intake.xml

  # Run a directory of fixtures four at a time
  cctest run tests/*.yaml --parallel 4 --output-xml out/

  # Use explicit artifacts instead of the workspace cache
  cctest run tests/intake.yaml --app build/app.ccz --minimal-restore

  # Machine-readable results
  cctest run tests/*.yaml --format json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixtures(cmd, args, opts)
		},
	}
	cmd.GroupID = shared.GroupTesting

	f := cmd.Flags()
	f.StringVar(&opts.outputXML, "output-xml", "", "Write the completed form XML to this file (a directory with several fixtures)")
	f.StringVar(&opts.rawOutput, "raw-output", "", "Write the full engine output to this file (a directory with several fixtures)")
	f.BoolVar(&opts.showOutput, "show-output", false, "Mirror engine output live on stderr")
	f.StringVar(&opts.app, "app", "", "Application package (.ccz) to use instead of the cached one")
	f.StringVar(&opts.restore, "restore", "", "User restore XML to use instead of the cached one")
	f.BoolVar(&opts.minimalRestore, "minimal-restore", false, "Use a generated restore with no case data when none is given")
	f.StringVar(&opts.domain, "domain", "", "Override the fixture's domain")
	f.IntVarP(&opts.timeout, "timeout", "t", 0, "Override the per-fixture timeout in seconds")
	f.IntVarP(&opts.parallel, "parallel", "p", 0, "Maximum concurrent engines (default from max_parallel)")
	f.StringVarP(&opts.format, "format", "f", FormatTable, "Result format: table or json")
	f.StringArrayVar(&opts.engineArgs, "engine-arg", nil, "Extra argument appended to the engine command line (repeatable)")
	return cmd
}

func runFixtures(cmd *cobra.Command, args []string, opts *runOptions) error {
	if err := opts.validate(args); err != nil {
		return err
	}
	cfg, err := shared.LoadConfig(cmd)
	if err != nil {
		return err
	}

	fixtures, ok := loadFixtures(cmd, args)
	if !ok {
		return shared.NewExitError(shared.ExitInvalid)
	}
	overrides := fixture.Overrides{
		Domain:         opts.domain,
		Timeout:        time.Duration(opts.timeout) * time.Second,
		DefaultTimeout: cfg.Timeout(),
	}
	for i, f := range fixtures {
		fixtures[i] = f.WithOverrides(overrides)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	jobs, err := opts.jobs(ctx, cfg, fixtures)
	if err != nil {
		return err
	}
	launcher, err := launcherFor(ctx, cfg)
	if err != nil {
		return err
	}

	parallel := opts.parallel
	if parallel == 0 {
		parallel = cfg.MaxParallel
	}
	if opts.showOutput {
		parallel = 1
	}
	if parallel > len(jobs) {
		parallel = len(jobs)
	}

	display := shared.NewDisplay(cmd, cfg, shared.DisplayOptions{Plain: parallel > 1})
	r := &runner.Runner{
		Launcher:    launcher,
		Encoder:     &replay.CommCareEncoder{TrailingBlankLines: cfg.TrailingBlankLines},
		Classifier:  classify.New(nil),
		Progress:    display,
		History:     history.NewWriter(cfg.StateDir, cfg.MaxHistory),
		GracePeriod: cfg.Grace(),
		ExtraArgs:   opts.engineArgs,
	}
	if opts.showOutput {
		r.ShowOutput = cmd.ErrOrStderr()
	}
	display.Debugf("running %d fixture(s), %d at a time", len(jobs), parallel)

	start := time.Now()
	reports := r.RunAll(ctx, jobs, parallel)
	notify.NewHandler(cfg.Notifications).OnRunComplete(notify.Summary{
		Total:    len(reports),
		Passed:   tally(reports)[string(classify.Pass)],
		Duration: time.Since(start),
	})

	for _, rep := range reports {
		if rep.Err == nil {
			continue
		}
		if rep.Outcome == nil {
			apperrors.FprintError(cmd.ErrOrStderr(), apperrors.InvalidFixture(rep.Job.Fixture.SourcePath, rep.Err))
			continue
		}
		if cliErr := apperrors.AsCLIError(rep.Err); cliErr != nil {
			apperrors.FprintError(cmd.ErrOrStderr(), cliErr)
		} else {
			display.Warnf("%s: %v", rep.Job.Fixture.Name, rep.Err)
		}
	}

	if err := writeResults(cmd.OutOrStdout(), opts.format, reports); err != nil {
		return apperrors.Wrap(err, apperrors.Runtime)
	}
	if code := exitCodeFor(reports); code != shared.ExitPass {
		return shared.NewExitError(code)
	}
	return nil
}

func (o *runOptions) validate(args []string) error {
	if len(args) == 0 {
		return apperrors.MissingFixturePath()
	}
	if o.format != FormatTable && o.format != FormatJSON {
		return apperrors.InvalidFlagValue("--format", o.format, FormatTable, FormatJSON)
	}
	if o.timeout < 0 {
		return apperrors.InvalidFlagValue("--timeout", fmt.Sprint(o.timeout), "a positive number of seconds")
	}
	if o.restore != "" && o.minimalRestore {
		return apperrors.InvalidFlagCombination("--restore/--minimal-restore", "give a restore file or ask for a generated one, not both")
	}
	if o.parallel < 0 {
		return apperrors.InvalidFlagValue("--parallel", fmt.Sprint(o.parallel), "a positive number")
	}
	if o.domain != "" && !fixture.IsPathSegment(o.domain) {
		return apperrors.InvalidFlagValue("--domain", o.domain, "a project name without '/' or '\\'")
	}
	return nil
}

// loadFixtures loads every fixture and reports all invalid ones before
// any engine is started.
func loadFixtures(cmd *cobra.Command, paths []string) ([]*fixture.Fixture, bool) {
	fixtures := make([]*fixture.Fixture, 0, len(paths))
	ok := true
	for _, path := range paths {
		f, err := loadFixture(path)
		if err != nil {
			apperrors.FprintError(cmd.ErrOrStderr(), err)
			ok = false
			continue
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, ok
}

func loadFixture(path string) (*fixture.Fixture, *apperrors.CLIError) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.FixtureNotFound(path)
	}
	f, err := fixture.Load(path)
	if err != nil {
		return nil, apperrors.InvalidFixture(path, err)
	}
	return f, nil
}

// jobs resolves artifacts and output paths for every fixture.
func (o *runOptions) jobs(ctx context.Context, cfg *config.Configuration, fixtures []*fixture.Fixture) ([]runner.Job, error) {
	ws := workspace.NewManager(cfg.WorkspaceDir)
	resolve := workspace.ResolveOptions{
		AppPath:        o.app,
		RestorePath:    o.restore,
		MinimalRestore: o.minimalRestore,
	}

	single := len(fixtures) == 1
	seen := make(map[string]string)
	jobs := make([]runner.Job, 0, len(fixtures))
	for _, f := range fixtures {
		artifacts, err := ws.Resolve(ctx, f, resolve)
		if err != nil {
			var missing *workspace.MissingArtifactError
			if errors.As(err, &missing) {
				return nil, apperrors.ArtifactMissing(missing.Kind, missing.Path, missing.Hint, err)
			}
			return nil, apperrors.Wrap(err, apperrors.Runtime)
		}

		job := runner.Job{Fixture: f, Artifacts: artifacts}
		if single {
			job.Options = runner.Options{OutputXMLPath: o.outputXML, RawOutputPath: o.rawOutput}
		} else {
			if o.outputXML != "" {
				job.Options.OutputXMLPath = runner.PathFor(o.outputXML, f.SourcePath, ".xml")
			}
			if o.rawOutput != "" {
				job.Options.RawOutputPath = runner.PathFor(o.rawOutput, f.SourcePath, ".log")
			}
		}
		for _, path := range []string{job.Options.OutputXMLPath, job.Options.RawOutputPath} {
			if path == "" {
				continue
			}
			if other, dup := seen[path]; dup {
				return nil, apperrors.InvalidFlagCombination("--output-xml/--raw-output",
					fmt.Sprintf("%s and %s would both write %s", other, f.SourcePath, path))
			}
			seen[path] = f.SourcePath
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// exitCodeFor picks the most severe exit code over all reports.
func exitCodeFor(reports []runner.Report) int {
	rank := map[int]int{
		shared.ExitPass:    0,
		shared.ExitFail:    1,
		shared.ExitTimeout: 2,
		shared.ExitError:   3,
		shared.ExitInvalid: 4,
	}
	code := shared.ExitPass
	worse := func(c int) {
		if rank[c] > rank[code] {
			code = c
		}
	}

	for _, rep := range reports {
		o := rep.Outcome
		switch {
		case o == nil:
			worse(shared.ExitInvalid)
			continue
		case o.Status == classify.Error && o.TimedOut:
			worse(shared.ExitTimeout)
		case o.Status == classify.Error:
			worse(shared.ExitError)
		case o.Status == classify.Fail:
			worse(shared.ExitFail)
		}
		if rep.Err != nil {
			worse(shared.ExitError)
		}
	}
	return code
}
