package ui

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"tcphotos/pkg/scraper"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	quote := func(s string) string { return strings.ReplaceAll(s, "'", "''") }
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $template.GetElementsByTagName('text')
		$text.Item(0).AppendChild($template.CreateTextNode('%s')) | Out-Null
		$text.Item(1).AppendChild($template.CreateTextNode('%s')) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($template)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('tcphotos').Show($toast)
	`, quote(title), quote(message))

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier announces the end of a run on the console and, when enabled,
// as a desktop notification.
type Notifier struct {
	out    io.Writer
	sender NotificationSender
}

// NewNotifier creates a Notifier for the current platform. With desktop
// disabled, or on an unsupported platform, it only writes to out.
func NewNotifier(out io.Writer, desktop bool) *Notifier {
	if !desktop {
		return &Notifier{out: out}
	}

	var sender NotificationSender
	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}
	return &Notifier{out: out, sender: sender}
}

// NewNotifierWithSender creates a Notifier with an explicit sender
func NewNotifierWithSender(out io.Writer, sender NotificationSender) *Notifier {
	return &Notifier{out: out, sender: sender}
}

// RunFinished announces a run's outcome
func (n *Notifier) RunFinished(summary *scraper.Summary, err error) {
	switch {
	case summary == nil || (err != nil && summary.Processed == 0 && len(summary.Failures) == 0):
		n.SendError("tcphotos run failed", fmt.Sprint(err))
	case len(summary.Failures) > 0:
		n.SendError("tcphotos run finished with errors",
			fmt.Sprintf("%d photos processed, %d failed", summary.Processed, len(summary.Failures)))
	default:
		n.SendSuccess("tcphotos run complete",
			fmt.Sprintf("%d photos processed, %d new", summary.Processed, summary.Downloaded))
	}
}

// SendError sends an error notification
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

// SendSuccess sends a success notification
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Green(title), Green(message))
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender != nil {
		// Notifications are best effort
		_ = n.sender.Send(title, message)
	}
}
