// Package workspace manages the on-disk cache of engine artifacts: the
// packaged application per domain and app, and the user restore per user.
//
// Layout under the root directory:
//
//	workspaces/<domain>/<app_id>/app.ccz
//	workspaces/<domain>/<app_id>/app-info.json
//	workspaces/<domain>/<app_id>/users/<username>/restore.xml
//	workspaces/<domain>/<app_id>/users/<username>/user-info.json
//
// Artifacts are read-only while runs use them. The first fetch of an
// artifact is serialized per key, and files only appear once complete.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	WorkspacesDir        = "workspaces"
	AppFileName          = "app.ccz"
	AppInfoFileName      = "app-info.json"
	UsersDir             = "users"
	RestoreFileName      = "restore.xml"
	MinimalRestoreName   = "minimal-restore.xml"
	UserInfoFileName     = "user-info.json"
	defaultDirPerm       = 0o755
	defaultArtifactPerms = 0o644
)

// ErrNotCached is returned when an artifact is neither given explicitly nor
// present in the cache.
var ErrNotCached = errors.New("artifact not in workspace cache")

// Fetcher writes the content of an artifact.
type Fetcher func(ctx context.Context, w io.Writer) error

// AppInfo is the metadata stored next to a cached application package.
type AppInfo struct {
	AppID        string     `json:"app_id"`
	Name         string     `json:"name"`
	Version      int        `json:"version,omitempty"`
	Domain       string     `json:"domain,omitempty"`
	DownloadedAt *time.Time `json:"downloaded_at,omitempty"`
}

// UserInfo is the metadata stored next to a cached user restore.
type UserInfo struct {
	Username     string     `json:"username"`
	Domain       string     `json:"domain,omitempty"`
	AppID        string     `json:"app_id,omitempty"`
	DownloadedAt *time.Time `json:"downloaded_at,omitempty"`
}

// Manager owns one cache root. It is safe for concurrent use; share one
// Manager between concurrent runs so per-key locking applies.
type Manager struct {
	root  string
	locks KeyedMutex
}

// NewManager returns a manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{root: dir}
}

// Root returns the cache root directory.
func (m *Manager) Root() string { return m.root }

// AppDir returns the directory for one application.
func (m *Manager) AppDir(domain, appID string) string {
	return filepath.Join(m.root, WorkspacesDir, domain, appID)
}

// AppPath returns the cached application package path.
func (m *Manager) AppPath(domain, appID string) string {
	return filepath.Join(m.AppDir(domain, appID), AppFileName)
}

// UserDir returns the directory for one user of an application.
func (m *Manager) UserDir(domain, appID, username string) string {
	return filepath.Join(m.AppDir(domain, appID), UsersDir, username)
}

// RestorePath returns the cached user restore path.
func (m *Manager) RestorePath(domain, appID, username string) string {
	return filepath.Join(m.UserDir(domain, appID, username), RestoreFileName)
}

// AppKey identifies an application artifact for locking.
func AppKey(domain, appID string) string { return domain + "/" + appID }

// UserKey identifies a user artifact for locking.
func UserKey(domain, appID, username string) string {
	return domain + "/" + appID + "/" + username
}

// Ensure makes sure path exists, calling fetch to create it if it does not.
// Calls for the same key are serialized, so concurrent runs fetch an
// artifact once and later callers reuse it. The content is written to a
// temporary file and renamed into place, so path never holds a partial
// artifact. It reports whether fetch was called.
func (m *Manager) Ensure(ctx context.Context, key, path string, fetch Fetcher) (bool, error) {
	unlock := m.locks.Lock(key)
	defer unlock()

	if exists(path) {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	err := writeAtomic(path, func(w io.Writer) error { return fetch(ctx, w) })
	if err != nil {
		return false, fmt.Errorf("fetching %s: %w", key, err)
	}
	return true, nil
}

// SaveAppInfo writes the metadata for a cached application.
func (m *Manager) SaveAppInfo(info AppInfo) error {
	path := filepath.Join(m.AppDir(info.Domain, info.AppID), AppInfoFileName)
	return writeJSON(path, info)
}

// LoadAppInfo reads application metadata. A missing file yields a zero
// AppInfo with only the identifiers set.
func (m *Manager) LoadAppInfo(domain, appID string) (AppInfo, error) {
	info := AppInfo{AppID: appID, Name: appID, Domain: domain}
	err := readJSON(filepath.Join(m.AppDir(domain, appID), AppInfoFileName), &info)
	return info, err
}

// SaveUserInfo writes the metadata for a cached user restore.
func (m *Manager) SaveUserInfo(info UserInfo) error {
	path := filepath.Join(m.UserDir(info.Domain, info.AppID, info.Username), UserInfoFileName)
	return writeJSON(path, info)
}

// LoadUserInfo reads user metadata, defaulting like LoadAppInfo.
func (m *Manager) LoadUserInfo(domain, appID, username string) (UserInfo, error) {
	info := UserInfo{Username: username, Domain: domain, AppID: appID}
	err := readJSON(filepath.Join(m.UserDir(domain, appID, username), UserInfoFileName), &info)
	return info, err
}

// CachedApp is one application found in the cache.
type CachedApp struct {
	Info  AppInfo
	Users []string
	// HasPackage is false when only restores were cached.
	HasPackage bool
}

// List returns every cached application sorted by domain and app ID.
func (m *Manager) List() ([]CachedApp, error) {
	domains, err := subdirs(filepath.Join(m.root, WorkspacesDir))
	if err != nil {
		return nil, err
	}

	var apps []CachedApp
	for _, domain := range domains {
		appIDs, err := subdirs(filepath.Join(m.root, WorkspacesDir, domain))
		if err != nil {
			return nil, err
		}
		for _, appID := range appIDs {
			info, err := m.LoadAppInfo(domain, appID)
			if err != nil {
				return nil, err
			}
			users, err := subdirs(filepath.Join(m.AppDir(domain, appID), UsersDir))
			if err != nil {
				return nil, err
			}
			apps = append(apps, CachedApp{
				Info:       info,
				Users:      users,
				HasPackage: exists(m.AppPath(domain, appID)),
			})
		}
	}
	return apps, nil
}

// subdirs returns the sorted names of directories in dir; none if dir is absent.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// writeAtomic creates path through a temporary file in the same directory.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, defaultArtifactPerms); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	})
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
