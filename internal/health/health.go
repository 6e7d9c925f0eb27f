// Package health checks that the engine's prerequisites are in place:
// a recent enough Java, the commcare-cli jar, and writable cache and
// state directories.
package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cctools/cctest/internal/config"
	"github.com/cctools/cctest/internal/engine"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

func (r *HealthReport) add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// Checker runs the checks. The function fields default to the engine
// package's Java discovery and are replaced in tests.
type Checker struct {
	FindJava  func() (string, error)
	CheckJava func(ctx context.Context, java string) (int, error)
}

// RunHealthChecks runs all checks against cfg with the default Checker.
func RunHealthChecks(ctx context.Context, cfg *config.Configuration) *HealthReport {
	return (&Checker{}).Run(ctx, cfg)
}

// Run runs all checks and returns a report.
func (c *Checker) Run(ctx context.Context, cfg *config.Configuration) *HealthReport {
	report := &HealthReport{Passed: true}
	report.add(c.checkJava(ctx, cfg.JavaCmd))
	report.add(CheckCLIJar(cfg.CLIJar))
	report.add(CheckWritableDir("Workspace directory", cfg.WorkspaceDir))
	report.add(CheckWritableDir("State directory", cfg.StateDir))
	return report
}

func (c *Checker) checkJava(ctx context.Context, javaCmd string) CheckResult {
	find, check := c.FindJava, c.CheckJava
	if find == nil {
		find = engine.FindJava
	}
	if check == nil {
		check = engine.CheckJava
	}

	java := javaCmd
	if java == "" {
		var err error
		if java, err = find(); err != nil {
			return CheckResult{Name: "Java", Message: err.Error()}
		}
	}
	version, err := check(ctx, java)
	if err != nil {
		return CheckResult{Name: "Java", Message: err.Error()}
	}
	return CheckResult{Name: "Java", Passed: true, Message: fmt.Sprintf("Java %d found at %s", version, java)}
}

// CheckCLIJar checks that the commcare-cli jar is configured and present
func CheckCLIJar(path string) CheckResult {
	const name = "commcare-cli jar"
	if path == "" {
		return CheckResult{Name: name, Message: "cli_jar is not configured (set it in config or CCTEST_CLI_JAR)"}
	}
	st, err := os.Stat(path)
	if err != nil {
		return CheckResult{Name: name, Message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	if st.IsDir() {
		return CheckResult{Name: name, Message: fmt.Sprintf("%s is a directory", path)}
	}
	return CheckResult{Name: name, Passed: true, Message: "found at " + path}
}

// CheckWritableDir checks that dir exists or can be created, and accepts
// new files.
func CheckWritableDir(name, dir string) CheckResult {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return CheckResult{Name: name, Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	f, err := os.CreateTemp(dir, ".cctest-doctor-*")
	if err != nil {
		return CheckResult{Name: name, Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	f.Close()
	os.Remove(f.Name())
	return CheckResult{Name: name, Passed: true, Message: filepath.Clean(dir)}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var b strings.Builder
	for _, check := range report.Checks {
		if check.Passed {
			fmt.Fprintf(&b, "✓ %s: %s\n", check.Name, check.Message)
		} else {
			fmt.Fprintf(&b, "✗ %s: %s\n", check.Name, check.Message)
		}
	}
	return b.String()
}
