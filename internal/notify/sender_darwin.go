//go:build darwin

package notify

import (
	"fmt"
	"os/exec"
)

// DefaultMacOSSound plays when no sound_file is configured.
const DefaultMacOSSound = "/System/Library/Sounds/Glass.aiff"

type darwinSender struct {
	visual bool
	sound  bool
}

func newDarwinSender() Sender {
	return &darwinSender{
		visual: toolAvailable("osascript"),
		sound:  toolAvailable("afplay"),
	}
}

func newLinuxSender() Sender   { return noopSender{} }
func newWindowsSender() Sender { return noopSender{} }

func (s *darwinSender) SendVisual(n Notification) error {
	if !s.visual {
		return nil
	}
	script := fmt.Sprintf(`display notification %q with title %q`, n.Message, n.Title)
	return exec.Command("osascript", "-e", script).Run()
}

func (s *darwinSender) SendSound(soundFile string) error {
	if !s.sound {
		return nil
	}
	if soundFile == "" {
		soundFile = DefaultMacOSSound
	}
	return exec.Command("afplay", soundFile).Run()
}

func (s *darwinSender) VisualAvailable() bool { return s.visual }
func (s *darwinSender) SoundAvailable() bool  { return s.sound }
