package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/ledgerkeep/ledgerkeep/internal/syncer"
)

func (a *App) printResult(res syncer.Result) {
	if res.Success {
		fmt.Fprintln(a.out, color.GreenString(res.Message))
	} else {
		fmt.Fprintln(a.out, color.RedString(res.Message))
	}
	if res.AuthFailed {
		fmt.Fprintln(a.out, "Session expired or credentials rejected; run 'connect' to sign in again")
	}
	if res.ConflictDetected {
		fmt.Fprintln(a.out, color.YellowString("Conflicting edits were resolved; review recent records"))
	}
	if res.ReloadRequired {
		fmt.Fprintln(a.out, "Local data was replaced; listings reflect the downloaded state")
	}
}

func (a *App) sync(ctx context.Context) {
	a.printResult(a.session.Sync(ctx))
}

// push overwrites the remote backup with local state, skipping the merge.
func (a *App) push(ctx context.Context) {
	a.printResult(a.session.ForceUpload(ctx))
}

// pull replaces local state with the remote backup. A snapshot is taken
// first, so "rollback" can undo it.
func (a *App) pull(ctx context.Context) {
	confirm, err := getSimpleText(a.reader, "This replaces ALL local data with the remote backup. Type 'yes' to continue", a.out)
	if err != nil || confirm != "yes" {
		fmt.Fprintln(a.out, "Cancelled")
		return
	}
	a.printResult(a.session.ForceDownload(ctx))
}
