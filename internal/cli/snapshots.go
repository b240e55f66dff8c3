package cli

import (
	"context"
	"fmt"
)

func (a *App) listSnapshots(ctx context.Context) {
	snaps, err := a.store.Snapshots.List(ctx)
	if err != nil {
		a.log.Error(ctx, "could not list snapshots", "error", err)
		return
	}
	if len(snaps) == 0 {
		fmt.Fprintln(a.out, "No snapshots (one is taken before every sync)")
		return
	}
	for _, s := range snaps {
		fmt.Fprintf(a.out, "%s  %s\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}

func (a *App) rollback(ctx context.Context, id string) {
	confirm, err := getSimpleText(a.reader, "This replaces ALL local data with the snapshot. Type 'yes' to continue", a.out)
	if err != nil || confirm != "yes" {
		fmt.Fprintln(a.out, "Cancelled")
		return
	}
	if err := a.store.Snapshots.Restore(ctx, id); err != nil {
		fmt.Fprintln(a.out, "Rollback failed:", err)
		return
	}
	fmt.Fprintln(a.out, "Rolled back; next sync reconciles with the remote backup")
}
