package notify

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Sender delivers notifications through the platform's tools.
type Sender interface {
	SendVisual(n Notification) error
	// SendSound plays soundFile, or the platform sound when it is empty.
	SendSound(soundFile string) error
	VisualAvailable() bool
	SoundAvailable() bool
}

// NewSender returns the sender for the current OS, or a no-op sender on
// platforms without one.
func NewSender() Sender {
	switch runtime.GOOS {
	case "darwin":
		return newDarwinSender()
	case "linux":
		return newLinuxSender()
	case "windows":
		return newWindowsSender()
	default:
		return noopSender{}
	}
}

func toolAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

type noopSender struct{}

func (noopSender) SendVisual(Notification) error { return nil }
func (noopSender) SendSound(string) error        { return nil }
func (noopSender) VisualAvailable() bool         { return false }
func (noopSender) SoundAvailable() bool          { return false }

var supportedAudioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".aiff": true,
	".aif":  true,
	".ogg":  true,
	".flac": true,
	".m4a":  true,
}

// ValidateSoundFile checks that soundFile is a readable audio file of a
// supported format. An empty path is valid and means the platform sound.
func ValidateSoundFile(soundFile string) error {
	if soundFile == "" {
		return nil
	}
	info, err := os.Stat(soundFile)
	if err != nil {
		return fmt.Errorf("sound file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("sound file %s is a directory", soundFile)
	}
	ext := strings.ToLower(filepath.Ext(soundFile))
	if !supportedAudioExtensions[ext] {
		return fmt.Errorf("sound file %s: unsupported audio format %q", soundFile, ext)
	}
	return nil
}
