package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// MinJavaVersion is the oldest Java major version commcare-cli runs on.
const MinJavaVersion = 17

// JavaLauncher runs commcare-cli.jar in "play" mode:
//
//	java -jar commcare-cli.jar play <app.ccz> -r <restore.xml>
type JavaLauncher struct {
	// JavaCmd is the java executable; FindJava is used when empty.
	JavaCmd string
	JarPath string
	WorkDir string
}

// Launch implements Launcher. Missing artifacts are reported before any
// process is started.
func (l *JavaLauncher) Launch(ctx context.Context, spec LaunchSpec, stdout, stderr io.Writer) (Process, error) {
	java := l.JavaCmd
	if java == "" {
		found, err := FindJava()
		if err != nil {
			return nil, &ExecutionError{Op: "launch", Err: err}
		}
		java = found
	}

	for _, path := range []string{l.JarPath, spec.AppPath, spec.RestorePath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return nil, &ExecutionError{Op: "launch", Path: path, Err: fmt.Errorf("%w: %v", ErrArtifactMissing, err)}
		}
	}
	if l.JarPath == "" {
		return nil, &ExecutionError{Op: "launch", Err: fmt.Errorf("%w: no commcare-cli jar configured", ErrArtifactMissing)}
	}

	p, err := startProcess(java, l.args(spec), l.WorkDir, nil, stdout, stderr)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Describe implements Launcher.
func (l *JavaLauncher) Describe(spec LaunchSpec) string {
	java := l.JavaCmd
	if java == "" {
		java = "java"
	}
	return formatCommand(java, l.args(spec))
}

func (l *JavaLauncher) args(spec LaunchSpec) []string {
	args := []string{"-jar", l.JarPath, "play", spec.AppPath}
	if spec.RestorePath != "" {
		args = append(args, "-r", spec.RestorePath)
	}
	return append(args, spec.ExtraArgs...)
}

// FindJava returns $JAVA_HOME/bin/java when it exists, otherwise the first
// java on PATH.
func FindJava() (string, error) {
	if home := os.Getenv("JAVA_HOME"); home != "" {
		name := "java"
		if runtime.GOOS == "windows" {
			name = "java.exe"
		}
		candidate := filepath.Join(home, "bin", name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath("java"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("%w: install Java %d+ and put it on PATH, or set JAVA_HOME", ErrJavaNotFound, MinJavaVersion)
}

var javaVersionRe = regexp.MustCompile(`version "(\d+)(?:\.(\d+))?`)

// ParseJavaVersion extracts the major version from `java -version` output.
// Legacy "1.8.0" style strings report their minor component.
func ParseJavaVersion(output string) (int, error) {
	for _, line := range strings.Split(output, "\n") {
		m := javaVersionRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		major, _ := strconv.Atoi(m[1])
		if major == 1 && m[2] != "" {
			major, _ = strconv.Atoi(m[2])
		}
		return major, nil
	}
	return 0, fmt.Errorf("could not determine Java version from output: %s", strings.TrimSpace(output))
}

// CheckJava runs `java -version` and verifies the major version.
func CheckJava(ctx context.Context, java string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, java, "-version").CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("%w: running %s -version: %v", ErrJavaNotFound, java, err)
	}
	version, err := ParseJavaVersion(string(out))
	if err != nil {
		return 0, err
	}
	if version < MinJavaVersion {
		return version, fmt.Errorf("java %d found, but version %d+ is required", version, MinJavaVersion)
	}
	return version, nil
}
