package notify

// NotificationType is the kind of event being announced.
type NotificationType string

const (
	TypeSuccess NotificationType = "success"
	TypeFailure NotificationType = "failure"
)

// OutputType selects how a notification is delivered.
type OutputType string

const (
	OutputSound  OutputType = "sound"
	OutputVisual OutputType = "visual"
	OutputBoth   OutputType = "both"
)

// ValidOutputType reports whether s names an output type.
func ValidOutputType(s string) bool {
	switch OutputType(s) {
	case OutputSound, OutputVisual, OutputBoth:
		return true
	default:
		return false
	}
}

// Config is the notifications block of the cctest config.
type Config struct {
	// Enabled is the master switch; notifications are off by default.
	Enabled bool       `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Type    OutputType `koanf:"type" json:"type" yaml:"type" validate:"omitempty,oneof=sound visual both"`
	// SoundFile replaces the platform sound. Linux has no default sound.
	SoundFile string `koanf:"sound_file" json:"sound_file" yaml:"sound_file"`
	// OnFailureOnly skips runs where every fixture passed.
	OnFailureOnly bool `koanf:"on_failure_only" json:"on_failure_only" yaml:"on_failure_only"`
	// LongRunningThreshold skips runs shorter than this many seconds; 0
	// notifies for every run.
	LongRunningThreshold int `koanf:"long_running_threshold" json:"long_running_threshold" yaml:"long_running_threshold" validate:"min=0"`
}

// DefaultConfig returns the notification defaults.
func DefaultConfig() Config {
	return Config{Type: OutputBoth}
}

// Notification is a single message to display.
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
}
