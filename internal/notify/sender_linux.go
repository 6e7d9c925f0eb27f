//go:build linux

package notify

import (
	"os"
	"os/exec"
)

type linuxSender struct {
	visual bool
	sound  bool
}

func newLinuxSender() Sender {
	return &linuxSender{
		visual: toolAvailable("notify-send") && hasDisplay(),
		sound:  toolAvailable("paplay"),
	}
}

func newDarwinSender() Sender  { return noopSender{} }
func newWindowsSender() Sender { return noopSender{} }

// hasDisplay reports whether an X11 or Wayland session is present.
func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func (s *linuxSender) SendVisual(n Notification) error {
	if !s.visual {
		return nil
	}
	urgency := "normal"
	if n.Type == TypeFailure {
		urgency = "critical"
	}
	return exec.Command("notify-send", "-u", urgency, "-a", "cctest", n.Title, n.Message).Run()
}

// SendSound plays soundFile with paplay. There is no stock sound to fall
// back on, so an empty soundFile plays nothing.
func (s *linuxSender) SendSound(soundFile string) error {
	if !s.sound || soundFile == "" {
		return nil
	}
	return exec.Command("paplay", soundFile).Run()
}

func (s *linuxSender) VisualAvailable() bool { return s.visual }
func (s *linuxSender) SoundAvailable() bool  { return s.sound }
