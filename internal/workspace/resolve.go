package workspace

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cctools/cctest/internal/fixture"
)

// Artifacts are the resolved inputs of one engine run.
type Artifacts struct {
	AppPath     string
	RestorePath string
}

// ResolveOptions carries explicit artifact choices that bypass the cache.
type ResolveOptions struct {
	AppPath     string
	RestorePath string
	// MinimalRestore uses a generated restore with no case data when no
	// restore is given explicitly.
	MinimalRestore bool
	// Now stamps generated restores; time.Now when zero.
	Now time.Time
}

// MissingArtifactError reports an artifact that is neither given nor cached.
type MissingArtifactError struct {
	Kind string // "application" or "restore"
	Path string
	Hint string
}

// Error implements the error interface.
func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("%s not found at %s", e.Kind, e.Path)
}

// Unwrap returns ErrNotCached.
func (e *MissingArtifactError) Unwrap() error { return ErrNotCached }

// Resolve finds the application and restore for a fixture. Explicit paths
// win over the cache. A minimal restore is generated into the user's cache
// directory on first use.
func (m *Manager) Resolve(ctx context.Context, f *fixture.Fixture, opts ResolveOptions) (Artifacts, error) {
	var a Artifacts
	c := f.Connection

	switch {
	case opts.AppPath != "":
		if !exists(opts.AppPath) {
			return a, &MissingArtifactError{Kind: "application", Path: opts.AppPath, Hint: "check the --app path"}
		}
		a.AppPath = opts.AppPath
	default:
		cached := m.AppPath(c.Domain, c.AppID)
		if !exists(cached) {
			return a, &MissingArtifactError{
				Kind: "application",
				Path: cached,
				Hint: fmt.Sprintf("copy the app's %s into %s or pass --app", AppFileName, filepath.Dir(cached)),
			}
		}
		a.AppPath = cached
	}

	switch {
	case opts.RestorePath != "":
		if !exists(opts.RestorePath) {
			return a, &MissingArtifactError{Kind: "restore", Path: opts.RestorePath, Hint: "check the --restore path"}
		}
		a.RestorePath = opts.RestorePath
	case opts.MinimalRestore:
		path := filepath.Join(m.UserDir(c.Domain, c.AppID, c.Username), MinimalRestoreName)
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		_, err := m.Ensure(ctx, UserKey(c.Domain, c.AppID, c.Username)+"#minimal", path, func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, MinimalRestore(c.Username, now))
			return err
		})
		if err != nil {
			return a, err
		}
		a.RestorePath = path
	default:
		cached := m.RestorePath(c.Domain, c.AppID, c.Username)
		if !exists(cached) {
			return a, &MissingArtifactError{
				Kind: "restore",
				Path: cached,
				Hint: fmt.Sprintf("save the user's restore as %s, pass --restore, or use --minimal-restore", cached),
			}
		}
		a.RestorePath = cached
	}
	return a, nil
}

// Import copies src into the cache at dst under key unless dst already
// exists. It reports whether a copy was made.
func (m *Manager) Import(ctx context.Context, key, src, dst string) (bool, error) {
	return m.Ensure(ctx, key, dst, func(_ context.Context, w io.Writer) error {
		in, err := os.Open(src)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})
}

// MinimalRestore returns an OpenRosa restore payload that registers
// username with no case data, enough for forms that do not load cases.
// It has no XML declaration; the engine's parser rejects one here.
func MinimalRestore(username string, now time.Time) string {
	var esc strings.Builder
	_ = xml.EscapeText(&esc, []byte(username))
	user := esc.String()
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")

	return `<OpenRosaResponse xmlns="http://openrosa.org/http/response">
    <message nature="ota_restore_success">Successfully restored account ` + user + `!</message>
    <Sync xmlns="http://commcarehq.org/sync">
        <restore_id>minimal-restore-` + stamp + `</restore_id>
    </Sync>
    <registration xmlns="http://openrosa.org/user/registration">
        <username>` + user + `</username>
        <password>not-used</password>
        <uuid>minimal-user-` + user + `</uuid>
        <date>` + stamp + `</date>
        <user_data>
            <data key="commcare_first_name">` + user + `</data>
            <data key="commcare_last_name">User</data>
        </user_data>
    </registration>
</OpenRosaResponse>`
}
