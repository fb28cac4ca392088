package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
)

// EditorEnvVar selects the editor for fctl edit.
const EditorEnvVar = "EDITOR"

const defaultEditor = "vi"

// EditOptions tunes an edit session.
type EditOptions struct {
	// Reload runs the reconciler after the editor exits, so the edit
	// takes effect in one move.
	Reload bool
}

// EditReport says what an edit session touched.
type EditReport struct {
	Path string
	// ReloadReport is set when the session ran with Reload.
	ReloadReport *reconcile.Report
}

// Edit opens a named config target in the operator's $EDITOR and
// optionally reloads afterwards. The target must already exist; a
// fresh root goes through install first.
func (h *Harness) Edit(ctx context.Context, target string, opts EditOptions) (*EditReport, error) {
	m, err := h.Manifest()
	if err != nil {
		return nil, err
	}

	path, err := config.ResolveEditTarget(m, target)
	if err != nil {
		return nil, err
	}
	if !h.fs.Exists(path) {
		return nil, fmt.Errorf("%s does not exist yet; run fctl install first", path)
	}

	editor := h.getenv(EditorEnvVar)
	if editor == "" {
		editor = defaultEditor
	}
	// EDITOR may carry flags ("code --wait"); split on whitespace like
	// git does.
	fields := strings.Fields(editor)
	args := append(fields[1:], path)
	if err := h.runner.Interactive(ctx, fields[0], args...); err != nil {
		return nil, fmt.Errorf("editor %s failed: %w", fields[0], err)
	}

	report := &EditReport{Path: path}
	if opts.Reload {
		// Keep the reload report even on error: a partial restart
		// failure still restarted the other services.
		report.ReloadReport, err = h.Reload(ctx)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}
