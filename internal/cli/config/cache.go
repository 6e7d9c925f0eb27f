package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/cctools/cctest/internal/cli/shared"
	apperrors "github.com/cctools/cctest/internal/errors"
	"github.com/cctools/cctest/internal/fixture"
	"github.com/cctools/cctest/internal/workspace"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached applications and restores",
		Long: `Manage the workspace cache that run reads applications and restores from.

Cached files live under workspace_dir:
  workspaces/<domain>/<app_id>/app.ccz
  workspaces/<domain>/<app_id>/users/<username>/restore.xml`,
		Example: `  # Cache an application package and a user restore
  cctest cache import --domain demo --app-id abc123 --app build/app.ccz \
      --username nurse --restore restore.xml

  # Show what is cached
  cctest cache list`,
	}
	cacheCmd.GroupID = shared.GroupConfiguration

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Copy an application package or restore into the cache",
		Long: `Copy an application package (--app) and/or a user restore (--restore)
into the workspace cache so fixtures with a matching domain, app_id and
username can run without --app/--restore.

Existing cached files are kept unless --force is given.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runCacheImport,
	}
	f := importCmd.Flags()
	f.String("domain", "", "Project space the application belongs to (required)")
	f.String("app-id", "", "Application ID (required)")
	f.String("app", "", "Application package (.ccz) to import")
	f.String("name", "", "Display name recorded for the application")
	f.Int("version", 0, "Application version recorded for the application")
	f.String("username", "", "User the restore belongs to (required with --restore)")
	f.String("restore", "", "User restore XML to import")
	f.Bool("force", false, "Replace files that are already cached")

	listCmd := &cobra.Command{
		Use:          "list",
		Aliases:      []string{"ls"},
		Short:        "List cached applications and users",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runCacheList,
	}

	cacheCmd.AddCommand(importCmd, listCmd)
	return cacheCmd
}

func runCacheImport(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	domain, _ := f.GetString("domain")
	appID, _ := f.GetString("app-id")
	app, _ := f.GetString("app")
	name, _ := f.GetString("name")
	version, _ := f.GetInt("version")
	username, _ := f.GetString("username")
	restore, _ := f.GetString("restore")
	force, _ := f.GetBool("force")

	if domain == "" || appID == "" {
		return apperrors.NewArgumentErrorWithUsage("--domain and --app-id are required",
			"cctest cache import --domain D --app-id A [--app FILE] [--username U --restore FILE]")
	}
	if app == "" && restore == "" {
		return apperrors.NewArgumentError("nothing to import", "Pass --app, --restore, or both")
	}
	if restore != "" && username == "" {
		return apperrors.InvalidFlagCombination("--restore", "--username is required to cache a restore")
	}
	for _, fv := range [][2]string{{"--domain", domain}, {"--app-id", appID}, {"--username", username}} {
		if fv[1] != "" && !fixture.IsPathSegment(fv[1]) {
			return apperrors.InvalidFlagValue(fv[0], fv[1], "a name without '/' or '\\'")
		}
	}

	cfg, err := shared.LoadConfig(cmd)
	if err != nil {
		return err
	}
	ws := workspace.NewManager(cfg.WorkspaceDir)
	now := time.Now().UTC()
	out := cmd.OutOrStdout()
	c := shared.NewColors()

	if app != "" {
		dst := ws.AppPath(domain, appID)
		copied, err := importFile(cmd, ws, workspace.AppKey(domain, appID), app, dst, force)
		if err != nil {
			return err
		}
		if copied {
			info := workspace.AppInfo{AppID: appID, Name: name, Version: version, Domain: domain, DownloadedAt: &now}
			if info.Name == "" {
				info.Name = appID
			}
			if err := ws.SaveAppInfo(info); err != nil {
				return apperrors.Wrap(err, apperrors.Runtime)
			}
			fmt.Fprintf(out, "%s Cached application %s/%s at %s\n", c.Green("✓"), domain, appID, dst)
		} else {
			fmt.Fprintf(out, "%s Application %s/%s already cached at %s (use --force to replace)\n", c.Yellow("-"), domain, appID, dst)
		}
	}

	if restore != "" {
		dst := ws.RestorePath(domain, appID, username)
		copied, err := importFile(cmd, ws, workspace.UserKey(domain, appID, username), restore, dst, force)
		if err != nil {
			return err
		}
		if copied {
			if err := ws.SaveUserInfo(workspace.UserInfo{Username: username, Domain: domain, AppID: appID, DownloadedAt: &now}); err != nil {
				return apperrors.Wrap(err, apperrors.Runtime)
			}
			fmt.Fprintf(out, "%s Cached restore for %s at %s\n", c.Green("✓"), username, dst)
		} else {
			fmt.Fprintf(out, "%s Restore for %s already cached at %s (use --force to replace)\n", c.Yellow("-"), username, dst)
		}
	}
	return nil
}

func importFile(cmd *cobra.Command, ws *workspace.Manager, key, src, dst string, force bool) (bool, error) {
	if _, err := os.Stat(src); err != nil {
		return false, apperrors.NewArgumentError(fmt.Sprintf("file not found: %s", src), "Check the path and try again")
	}
	if force {
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return false, apperrors.FileNotWritable(dst, err)
		}
	}
	copied, err := ws.Import(cmd.Context(), key, src, dst)
	if err != nil {
		return false, apperrors.FileNotWritable(dst, err)
	}
	return copied, nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	cfg, err := shared.LoadConfig(cmd)
	if err != nil {
		return err
	}
	apps, err := workspace.NewManager(cfg.WorkspaceDir).List()
	if err != nil {
		return apperrors.Wrap(err, apperrors.Runtime)
	}

	out := cmd.OutOrStdout()
	if len(apps) == 0 {
		fmt.Fprintf(out, "No cached applications in %s.\n", cfg.WorkspaceDir)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Domain", "App ID", "Name", "Version", "Package", "Users"})
	for _, app := range apps {
		version := "-"
		if app.Info.Version > 0 {
			version = fmt.Sprint(app.Info.Version)
		}
		pkg := "missing"
		if app.HasPackage {
			pkg = "cached"
		}
		users := strings.Join(app.Users, ", ")
		if users == "" {
			users = "-"
		}
		t.AppendRow(table.Row{app.Info.Domain, app.Info.AppID, app.Info.Name, version, pkg, users})
	}
	t.Render()
	return nil
}
