package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ledgerkeep/ledgerkeep/internal/models"
)

// exportPlaintext writes all local data, deletions included, as unencrypted
// JSON. Meant for user-controlled backups and inspection; the file carries
// no secrets but does carry the full ledger.
func (a *App) exportPlaintext(ctx context.Context, path string) {
	body, err := a.store.Dump(ctx)
	if err != nil {
		a.log.Error(ctx, "could not export data", "error", err)
		return
	}
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		a.log.Error(ctx, "could not export data", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		fmt.Fprintln(a.out, "Export failed:", err)
		return
	}
	fmt.Fprintf(a.out, "Exported to %s\n", path)
}

// importPlaintext replaces all local data with the contents of an exported
// file. Sync versions in the file are preserved; the version counter is
// raised past them so later edits still win merges.
func (a *App) importPlaintext(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(a.out, "Import failed:", err)
		return
	}
	var body models.BackupBody
	if err := json.Unmarshal(data, &body); err != nil {
		fmt.Fprintln(a.out, "Import failed: not a valid export file:", err)
		return
	}

	confirm, err := getSimpleText(a.reader, "This replaces ALL local data with the file contents. Type 'yes' to continue", a.out)
	if err != nil || confirm != "yes" {
		fmt.Fprintln(a.out, "Cancelled")
		return
	}

	if _, err := a.store.Snapshots.Create(ctx); err != nil {
		a.log.Error(ctx, "could not snapshot before import", "error", err)
		return
	}
	if err := a.store.Restore(ctx, &body); err != nil {
		fmt.Fprintln(a.out, "Import failed:", err)
		return
	}
	fmt.Fprintf(a.out, "Imported from %s\n", path)
}
