package notify

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

// dispatchTimeout bounds how long a run waits for the notification tools.
const dispatchTimeout = 5 * time.Second

// Summary describes a finished run.
type Summary struct {
	Total    int
	Passed   int
	Duration time.Duration
}

// Success reports whether every fixture passed.
func (s Summary) Success() bool { return s.Total > 0 && s.Passed == s.Total }

// Message is the notification body for the run.
func (s Summary) Message() string {
	if s.Success() {
		if s.Total == 1 {
			return fmt.Sprintf("Fixture passed (%s)", formatDuration(s.Duration))
		}
		return fmt.Sprintf("All %d fixtures passed (%s)", s.Total, formatDuration(s.Duration))
	}
	return fmt.Sprintf("%d/%d fixtures passed (%s)", s.Passed, s.Total, formatDuration(s.Duration))
}

// Handler decides whether a run is worth announcing and sends it.
type Handler struct {
	config      Config
	sender      Sender
	interactive func() bool
}

// NewHandler returns a handler using the platform sender.
func NewHandler(cfg Config) *Handler {
	return NewHandlerWithSender(cfg, NewSender())
}

// NewHandlerWithSender returns a handler using sender.
func NewHandlerWithSender(cfg Config, sender Sender) *Handler {
	return &Handler{config: cfg, sender: sender, interactive: isInteractive}
}

// Config returns the handler's configuration.
func (h *Handler) Config() Config { return h.config }

func (h *Handler) enabled() bool {
	return h.config.Enabled && h.interactive()
}

// OnRunComplete announces a finished run. It returns once the notification
// is sent or dispatchTimeout has passed, whichever comes first. It reports
// whether a notification was dispatched.
func (h *Handler) OnRunComplete(s Summary) bool {
	if !h.enabled() {
		return false
	}
	if h.config.OnFailureOnly && s.Success() {
		return false
	}
	if threshold := time.Duration(h.config.LongRunningThreshold) * time.Second; threshold > 0 && s.Duration < threshold {
		return false
	}

	n := Notification{Title: "cctest", Message: s.Message(), Type: TypeSuccess}
	if !s.Success() {
		n.Type = TypeFailure
	}
	h.dispatch(n)
	return true
}

func (h *Handler) dispatch(n Notification) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.send(n)
	}()

	select {
	case <-done:
	case <-time.After(dispatchTimeout):
	}
}

// send delivers n. Failures of the notification tools are ignored.
func (h *Handler) send(n Notification) {
	sound := h.config.SoundFile
	if ValidateSoundFile(sound) != nil {
		sound = ""
	}
	switch h.config.Type {
	case OutputSound:
		_ = h.sender.SendSound(sound)
	case OutputVisual:
		_ = h.sender.SendVisual(n)
	default:
		_ = h.sender.SendVisual(n)
		_ = h.sender.SendSound(sound)
	}
}

var ciVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"TRAVIS",
	"JENKINS_URL",
	"BUILDKITE",
	"DRONE",
	"TEAMCITY_VERSION",
	"TF_BUILD",
	"BITBUCKET_PIPELINES",
	"CODEBUILD_BUILD_ID",
}

func isCI() bool {
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// isInteractive is false in CI and when no standard stream is a terminal.
func isInteractive() bool {
	if isCI() {
		return false
	}
	for _, f := range []*os.File{os.Stdout, os.Stderr, os.Stdin} {
		if term.IsTerminal(int(f.Fd())) {
			return true
		}
	}
	return false
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
