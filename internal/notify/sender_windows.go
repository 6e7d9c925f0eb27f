//go:build windows

package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

type windowsSender struct {
	available bool
}

func newWindowsSender() Sender {
	return &windowsSender{available: toolAvailable("powershell")}
}

func newDarwinSender() Sender { return noopSender{} }
func newLinuxSender() Sender  { return noopSender{} }

const toastScript = `
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$textNodes = $template.GetElementsByTagName('text')
$textNodes.Item(0).AppendChild($template.CreateTextNode('%s')) | Out-Null
$textNodes.Item(1).AppendChild($template.CreateTextNode('%s')) | Out-Null
$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('cctest').Show($toast)
`

func (s *windowsSender) SendVisual(n Notification) error {
	if !s.available {
		return nil
	}
	return powershell(fmt.Sprintf(toastScript, escapeForPowerShell(n.Title), escapeForPowerShell(n.Message)))
}

func (s *windowsSender) SendSound(soundFile string) error {
	if !s.available {
		return nil
	}
	script := "[Console]::Beep(800, 200)"
	if soundFile != "" {
		script = fmt.Sprintf("$player = New-Object System.Media.SoundPlayer\n$player.SoundLocation = '%s'\n$player.PlaySync()",
			escapeForPowerShell(soundFile))
	}
	return powershell(script)
}

func (s *windowsSender) VisualAvailable() bool { return s.available }
func (s *windowsSender) SoundAvailable() bool  { return s.available }

func powershell(script string) error {
	return exec.Command("powershell", "-ExecutionPolicy", "Bypass", "-NoProfile", "-Command", script).Run()
}

// escapeForPowerShell escapes s for a single-quoted PowerShell string.
func escapeForPowerShell(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '\'':
			b.WriteString("''")
		case '`', '$':
			b.WriteRune('`')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
