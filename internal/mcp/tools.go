// Package mcp provides MCP (Model Context Protocol) server implementation for fctl.
package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/fctl/internal/app"
	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
	"github.com/felixgeelhaar/mcp-go"
)

// StatusInput is the input for the fctl_status tool.
type StatusInput struct {
	Root string `json:"root,omitempty" jsonschema:"description=Deploy root to inspect (default: configured root)"`
}

// StatusOutput is the output for the fctl_status tool.
type StatusOutput struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	Root      string `json:"root"`

	Services      []ServiceStatus `json:"services,omitempty"`
	ServicesError string          `json:"services_error,omitempty"`

	Healthy     bool   `json:"healthy"`
	HealthURL   string `json:"health_url"`
	HealthError string `json:"health_error,omitempty"`

	// ResumeOrdinal is the last completed installer step when an
	// interrupted install left markers behind, 0 otherwise.
	ResumeOrdinal int    `json:"resume_ordinal,omitempty"`
	StateError    string `json:"state_error,omitempty"`

	SnapshotTakenAt string   `json:"snapshot_taken_at,omitempty"`
	PendingReload   []string `json:"pending_reload,omitempty"`
	PendingError    string   `json:"pending_error,omitempty"`
}

// ServiceStatus is one compose service in a status report.
type ServiceStatus struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Health string `json:"health,omitempty"`
}

// DoctorInput is the input for the fctl_doctor tool.
type DoctorInput struct {
	Root string `json:"root,omitempty" jsonschema:"description=Deploy root to check (default: configured root)"`
}

// DoctorOutput is the output for the fctl_doctor tool.
type DoctorOutput struct {
	Healthy bool          `json:"healthy"`
	Passed  int           `json:"passed"`
	Warned  int           `json:"warned"`
	Failed  int           `json:"failed"`
	Checks  []DoctorCheck `json:"checks"`
}

// DoctorCheck is one diagnostic result.
type DoctorCheck struct {
	Name       string `json:"name"`
	Severity   string `json:"severity"`
	Detail     string `json:"detail,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// LogsInput is the input for the fctl_logs tool.
type LogsInput struct {
	Root     string   `json:"root,omitempty" jsonschema:"description=Deploy root (default: configured root)"`
	Services []string `json:"services,omitempty" jsonschema:"description=Services to read (default: whole stack)"`
	Tail     int      `json:"tail,omitempty" jsonschema:"description=Lines per service (default: 100, max: 10000)"`
}

// LogsOutput is the output for the fctl_logs tool.
type LogsOutput struct {
	Services []string `json:"services,omitempty"`
	Tail     int      `json:"tail"`
	Logs     string   `json:"logs"`
}

// InstallInput is the input for the fctl_install tool.
type InstallInput struct {
	Root    string `json:"root,omitempty" jsonschema:"description=Deploy root to provision (default: configured root)"`
	Force   bool   `json:"force,omitempty" jsonschema:"description=Run every step even if already satisfied"`
	Confirm bool   `json:"confirm" jsonschema:"required,description=Must be true to provision the host (safety confirmation)"`
}

// InstallOutput is the output for the fctl_install tool.
type InstallOutput struct {
	Installed   bool          `json:"installed"`
	RunID       string        `json:"run_id,omitempty"`
	Steps       []InstallStep `json:"steps,omitempty"`
	Applied     int           `json:"applied"`
	Healthy     bool          `json:"healthy"`
	HealthError string        `json:"health_error,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// InstallStep is one installer step result.
type InstallStep struct {
	Ordinal     int    `json:"ordinal"`
	ID          string `json:"id"`
	Description string `json:"description"`
	Outcome     string `json:"outcome"`
	Error       string `json:"error,omitempty"`
	Duration    string `json:"duration"`
}

// DeployInput is the input for the fctl_deploy tool.
type DeployInput struct {
	Root    string `json:"root,omitempty" jsonschema:"description=Deploy root (default: configured root)"`
	Confirm bool   `json:"confirm" jsonschema:"required,description=Must be true to start services (safety confirmation)"`
}

// DeployOutput is the output for the fctl_deploy tool.
type DeployOutput struct {
	Deployed    bool     `json:"deployed"`
	Services    []string `json:"services,omitempty"`
	Healthy     bool     `json:"healthy"`
	HealthError string   `json:"health_error,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// UpdateInput is the input for the fctl_update tool.
type UpdateInput struct {
	Root    string `json:"root,omitempty" jsonschema:"description=Deploy root (default: configured root)"`
	Confirm bool   `json:"confirm" jsonschema:"required,description=Must be true to restart services onto new images (safety confirmation)"`
}

// UpdateOutput is the output for the fctl_update tool.
type UpdateOutput struct {
	Updated     bool     `json:"updated"`
	Services    []string `json:"services,omitempty"`
	Healthy     bool     `json:"healthy"`
	HealthError string   `json:"health_error,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// ReloadInput is the input for the fctl_reload tool.
type ReloadInput struct {
	Root    string `json:"root,omitempty" jsonschema:"description=Deploy root (default: configured root)"`
	Confirm bool   `json:"confirm" jsonschema:"required,description=Must be true to restart dependent services (safety confirmation)"`
}

// ReloadOutput is the output for the fctl_reload tool.
type ReloadOutput struct {
	Applied         bool              `json:"applied"`
	Changed         []string          `json:"changed,omitempty"`
	RestartSet      []string          `json:"restart_set,omitempty"`
	Restarted       []string          `json:"restarted,omitempty"`
	FailedRestarts  map[string]string `json:"failed_restarts,omitempty"`
	SnapshotWritten bool              `json:"snapshot_written"`
	Duration        string            `json:"duration,omitempty"`
	Message         string            `json:"message,omitempty"`
}

// BackupInput is the input for the fctl_backup tool.
type BackupInput struct {
	Root string `json:"root,omitempty" jsonschema:"description=Deploy root (default: configured root)"`
}

// BackupOutput is the output for the fctl_backup tool.
type BackupOutput struct {
	ID        string   `json:"id"`
	Stamp     string   `json:"stamp"`
	CreatedAt string   `json:"created_at"`
	Files     []string `json:"files"`
	Pruned    []string `json:"pruned,omitempty"`
}

// BackupsInput is the input for the fctl_backups tool.
type BackupsInput struct {
	Root string `json:"root,omitempty" jsonschema:"description=Deploy root (default: configured root)"`
}

// BackupsOutput is the output for the fctl_backups tool.
type BackupsOutput struct {
	Sets []BackupSet `json:"sets"`
}

// BackupSet is one stored backup set, newest first.
type BackupSet struct {
	ID        string `json:"id"`
	Stamp     string `json:"stamp"`
	CreatedAt string `json:"created_at"`
	Age       string `json:"age"`
	FileCount int    `json:"file_count"`
}

// RestoreInput is the input for the fctl_restore tool.
type RestoreInput struct {
	Root    string `json:"root,omitempty" jsonschema:"description=Deploy root (default: configured root)"`
	Key     string `json:"key" jsonschema:"required,description=Backup set stamp or ID to restore"`
	Restart bool   `json:"restart,omitempty" jsonschema:"description=Restart the services that depend on the restored files"`
	Confirm bool   `json:"confirm" jsonschema:"required,description=Must be true to overwrite deployed files (safety confirmation)"`
}

// RestoreOutput is the output for the fctl_restore tool.
type RestoreOutput struct {
	DryRun     bool     `json:"dry_run"`
	Stamp      string   `json:"stamp,omitempty"`
	Restored   []string `json:"restored,omitempty"`
	RestartSet []string `json:"restart_set,omitempty"`
	Restarted  bool     `json:"restarted"`
	Message    string   `json:"message,omitempty"`
}

// VersionInfo contains version metadata for the MCP server.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// RegisterAll registers all MCP tools with the server.
func RegisterAll(srv *mcp.Server, harness *app.Harness, versionInfo VersionInfo) {
	// Read-only inspection
	registerStatusTool(srv, harness, versionInfo)
	registerDoctorTool(srv, harness)
	registerLogsTool(srv, harness)
	registerBackupsTool(srv, harness)

	// Lifecycle operations
	registerInstallTool(srv, harness)
	registerDeployTool(srv, harness)
	registerUpdateTool(srv, harness)
	registerReloadTool(srv, harness)
	registerBackupTool(srv, harness)
	registerRestoreTool(srv, harness)
}

func registerStatusTool(srv *mcp.Server, harness *app.Harness, versionInfo VersionInfo) {
	srv.Tool("fctl_status").
		Description("Get current deployment status including services, health, pending config changes, and installer resume point.").
		ReadOnly().
		Handler(func(ctx context.Context, in StatusInput) (*StatusOutput, error) {
			if err := ValidateStatusInput(&in); err != nil {
				return nil, err
			}

			report, err := withRoot(harness, in.Root).Status(ctx)
			if err != nil {
				return nil, err
			}

			output := &StatusOutput{
				Version:       versionInfo.Version,
				Commit:        versionInfo.Commit,
				BuildDate:     versionInfo.BuildDate,
				Root:          report.Root,
				ServicesError: errString(report.ServicesErr),
				Healthy:       report.Healthy,
				HealthURL:     report.HealthURL,
				HealthError:   errString(report.HealthErr),
				ResumeOrdinal: report.ResumeOrdinal,
				StateError:    errString(report.StateErr),
				PendingReload: report.PendingReload,
				PendingError:  errString(report.PendingErr),
			}
			for _, svc := range report.Services {
				output.Services = append(output.Services, ServiceStatus{
					Name:   svc.Name,
					State:  svc.State,
					Health: svc.Health,
				})
			}
			if !report.SnapshotTakenAt.IsZero() {
				output.SnapshotTakenAt = report.SnapshotTakenAt.Format(time.RFC3339)
			}
			return output, nil
		})
}

func registerDoctorTool(srv *mcp.Server, harness *app.Harness) {
	srv.Tool("fctl_doctor").
		Description("Run read-only diagnostics against the host and report what a deploy would trip over.").
		ReadOnly().
		Handler(func(ctx context.Context, in DoctorInput) (*DoctorOutput, error) {
			if err := ValidateDoctorInput(&in); err != nil {
				return nil, err
			}

			report, err := withRoot(harness, in.Root).Doctor(ctx)
			if err != nil {
				return nil, err
			}

			pass, warn, fail := report.Counts()
			output := &DoctorOutput{
				Healthy: fail == 0,
				Passed:  pass,
				Warned:  warn,
				Failed:  fail,
				Checks:  make([]DoctorCheck, 0, len(report.Results)),
			}
			for _, res := range report.Results {
				output.Checks = append(output.Checks, DoctorCheck{
					Name:       res.Name,
					Severity:   res.Severity.String(),
					Detail:     res.Detail,
					Suggestion: res.Suggestion,
				})
			}
			return output, nil
		})
}

func registerLogsTool(srv *mcp.Server, harness *app.Harness) {
	srv.Tool("fctl_logs").
		Description("Fetch recent container logs from the facilitator stack. Reads a bounded tail, never follows.").
		ReadOnly().
		Handler(func(ctx context.Context, in LogsInput) (*LogsOutput, error) {
			if err := ValidateLogsInput(&in); err != nil {
				return nil, err
			}

			tail := in.Tail
			if tail <= 0 {
				tail = app.DefaultLogTail
			}

			var buf bytes.Buffer
			h := withRoot(harness, in.Root).WithOutput(&buf)
			if err := h.Logs(ctx, app.LogsOptions{Services: in.Services, Tail: tail}); err != nil {
				return nil, err
			}

			return &LogsOutput{
				Services: in.Services,
				Tail:     tail,
				Logs:     buf.String(),
			}, nil
		})
}

func registerInstallTool(srv *mcp.Server, harness *app.Harness) {
	srv.Tool("fctl_install").
		Description("Provision the host and start the facilitator stack. Resumes from durable step markers after a failure. REQUIRES confirm=true for safety.").
		Destructive().
		Handler(func(ctx context.Context, in InstallInput) (*InstallOutput, error) {
			if err := ValidateInstallInput(&in); err != nil {
				return nil, err
			}
			if !in.Confirm {
				return &InstallOutput{
					Message: "Preview only. Set confirm=true to provision the host.",
				}, nil
			}

			report, err := withRoot(harness, in.Root).Install(ctx, app.InstallOptions{Force: in.Force})
			if err != nil {
				return nil, err
			}

			output := &InstallOutput{
				Installed:   report.Completed,
				RunID:       report.RunID,
				Applied:     report.AppliedCount(),
				Healthy:     report.Healthy,
				HealthError: errString(report.HealthErr),
				Steps:       make([]InstallStep, 0, len(report.Results)),
			}
			for _, res := range report.Results {
				output.Steps = append(output.Steps, InstallStep{
					Ordinal:     res.Ordinal,
					ID:          res.ID,
					Description: res.Description,
					Outcome:     string(res.Outcome),
					Error:       errString(res.Err),
					Duration:    res.Duration.String(),
				})
			}
			return output, nil
		})
}

func registerDeployTool(srv *mcp.Server, harness *app.Harness) {
	srv.Tool("fctl_deploy").
		Description("Pull current images, bring the stack up, and wait for the facilitator health endpoint. REQUIRES confirm=true for safety.").
		Destructive().
		Handler(func(ctx context.Context, in DeployInput) (*DeployOutput, error) {
			if err := ValidateDeployInput(&in); err != nil {
				return nil, err
			}
			if !in.Confirm {
				return &DeployOutput{
					Message: "Preview only. Set confirm=true to pull images and start services.",
				}, nil
			}

			report, err := withRoot(harness, in.Root).Deploy(ctx)
			if err != nil {
				return nil, err
			}
			return &DeployOutput{
				Deployed:    true,
				Services:    report.Services,
				Healthy:     report.Healthy,
				HealthError: errString(report.HealthErr),
				Duration:    report.Duration.String(),
			}, nil
		})
}

func registerUpdateTool(srv *mcp.Server, harness *app.Harness) {
	srv.Tool("fctl_update").
		Description("Pull new images and restart every service onto them. REQUIRES confirm=true for safety.").
		Destructive().
		Handler(func(ctx context.Context, in UpdateInput) (*UpdateOutput, error) {
			if err := ValidateUpdateInput(&in); err != nil {
				return nil, err
			}
			if !in.Confirm {
				return &UpdateOutput{
					Message: "Preview only. Set confirm=true to restart services onto new images.",
				}, nil
			}

			report, err := withRoot(harness, in.Root).Update(ctx)
			if err != nil {
				return nil, err
			}
			return &UpdateOutput{
				Updated:     true,
				Services:    report.Services,
				Healthy:     report.Healthy,
				HealthError: errString(report.HealthErr),
				Duration:    report.Duration.String(),
			}, nil
		})
}

func registerReloadTool(srv *mcp.Server, harness *app.Harness) {
	srv.Tool("fctl_reload").
		Description("Restart exactly the services whose config files changed since the last baseline. Without confirm=true it previews the pending changes.").
		Destructive().
		Handler(func(ctx context.Context, in ReloadInput) (*ReloadOutput, error) {
			if err := ValidateReloadInput(&in); err != nil {
				return nil, err
			}

			h := withRoot(harness, in.Root)
			if !in.Confirm {
				pending, err := h.PendingReload(ctx)
				if err != nil {
					return nil, err
				}
				return &ReloadOutput{
					Changed: pending,
					Message: "Preview only. Set confirm=true to restart the services that depend on these files.",
				}, nil
			}

			report, err := h.Reload(ctx)
			if err != nil {
				// A partial restart failure still carries a usable
				// report; anything else aborts the tool call.
				var restartErr *reconcile.RestartError
				if !errors.As(err, &restartErr) || report == nil {
					return nil, err
				}
			}

			output := &ReloadOutput{
				Applied:         true,
				Changed:         report.Changed,
				RestartSet:      report.RestartSet,
				Restarted:       report.Restarted,
				SnapshotWritten: report.SnapshotWritten,
				Duration:        report.Duration.String(),
			}
			if len(report.FailedRestarts) > 0 {
				output.FailedRestarts = make(map[string]string, len(report.FailedRestarts))
				for svc, restartErr := range report.FailedRestarts {
					output.FailedRestarts[svc] = restartErr.Error()
				}
				output.Message = fmt.Sprintf("%d service restart(s) failed; see failed_restarts", len(report.FailedRestarts))
			}
			return output, nil
		})
}

func registerBackupTool(srv *mcp.Server, harness *app.Harness) {
	srv.Tool("fctl_backup").
		Description("Snapshot the deployable files into a new backup set and prune sets beyond the retention count.").
		Handler(func(ctx context.Context, in BackupInput) (*BackupOutput, error) {
			if err := ValidateBackupInput(&in); err != nil {
				return nil, err
			}

			report, err := withRoot(harness, in.Root).Backup(ctx)
			if err != nil {
				return nil, err
			}
			return &BackupOutput{
				ID:        report.Set.ID,
				Stamp:     report.Set.Stamp,
				CreatedAt: report.Set.CreatedAt.Format(time.RFC3339),
				Files:     sortedFileNames(report.Set.Files),
				Pruned:    report.Pruned,
			}, nil
		})
}

func registerBackupsTool(srv *mcp.Server, harness *app.Harness) {
	srv.Tool("fctl_backups").
		Description("List stored backup sets, newest first.").
		ReadOnly().
		Handler(func(ctx context.Context, in BackupsInput) (*BackupsOutput, error) {
			if err := ValidateBackupsInput(&in); err != nil {
				return nil, err
			}

			sets, err := withRoot(harness, in.Root).Backups(ctx)
			if err != nil {
				return nil, err
			}

			output := &BackupsOutput{Sets: make([]BackupSet, 0, len(sets))}
			for _, set := range sets {
				output.Sets = append(output.Sets, BackupSet{
					ID:        set.ID,
					Stamp:     set.Stamp,
					CreatedAt: set.CreatedAt.Format(time.RFC3339),
					Age:       formatAge(set.CreatedAt),
					FileCount: len(set.Files),
				})
			}
			return output, nil
		})
}

func registerRestoreTool(srv *mcp.Server, harness *app.Harness) {
	srv.Tool("fctl_restore").
		Description("Restore a backup set into the deploy root, hash-verified before anything is overwritten. REQUIRES confirm=true for safety.").
		Destructive().
		Handler(func(ctx context.Context, in RestoreInput) (*RestoreOutput, error) {
			if err := ValidateRestoreInput(&in); err != nil {
				return nil, err
			}

			h := withRoot(harness, in.Root)
			if !in.Confirm {
				sets, err := h.Backups(ctx)
				if err != nil {
					return nil, err
				}
				for _, set := range sets {
					if set.Stamp == in.Key || set.ID == in.Key {
						return &RestoreOutput{
							DryRun:   true,
							Stamp:    set.Stamp,
							Restored: sortedFileNames(set.Files),
							Message:  "Preview only. Set confirm=true to overwrite the deployed files.",
						}, nil
					}
				}
				return &RestoreOutput{
					DryRun:  true,
					Message: fmt.Sprintf("Backup set not found: %s", in.Key),
				}, nil
			}

			report, err := h.Restore(ctx, in.Key, in.Restart)
			if err != nil {
				return nil, err
			}
			return &RestoreOutput{
				Stamp:      report.Set.Stamp,
				Restored:   report.Restored,
				RestartSet: report.RestartSet,
				Restarted:  in.Restart && len(report.RestartSet) > 0,
			}, nil
		})
}

// withRoot applies a per-call root override.
func withRoot(h *app.Harness, root string) *app.Harness {
	if root == "" {
		return h
	}
	return h.WithRoot(root)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func sortedFileNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatAge renders a timestamp as a rough human-readable age.
func formatAge(t time.Time) string {
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		mins := int(age.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	case age < 24*time.Hour:
		hours := int(age.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case age < 7*24*time.Hour:
		days := int(age.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		weeks := int(age.Hours() / (24 * 7))
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	}
}
