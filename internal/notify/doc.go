// Package notify sends a desktop notification when a fixture run finishes.
//
// Senders shell out to the native tools of each platform, so the package
// needs no cgo:
//
//   - macOS: osascript for the banner, afplay for sound
//   - Linux: notify-send for the banner, paplay for sound
//   - Windows: PowerShell for the toast and sound
//
// Missing tools are skipped silently. Notifications are opt-in and never
// sent from CI or a non-interactive session.
package notify
