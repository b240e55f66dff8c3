package syncer

import (
	"sort"

	"github.com/ledgerkeep/ledgerkeep/internal/models"
)

// mergeTable unions local and remote record sets by id. The copy with the
// higher sync version wins, independent of wall-clock time. When versions are
// equal but content differs, the local copy wins and the conflict is
// reported; the tiebreak can discard a concurrent edit from another device.
// Soft-deleted records participate like any other record, so a delete with a
// higher version beats an earlier edit.
func mergeTable[T interface {
	models.Syncable
	comparable
}](local, remote []T) ([]T, bool) {
	byID := make(map[string]T, len(local)+len(remote))
	for _, r := range remote {
		byID[r.RecordID()] = r
	}

	conflict := false
	for _, l := range local {
		r, ok := byID[l.RecordID()]
		if !ok {
			byID[l.RecordID()] = l
			continue
		}
		switch {
		case l.Version() > r.Version():
			byID[l.RecordID()] = l
		case l.Version() == r.Version() && l != r:
			conflict = true
			byID[l.RecordID()] = l
		}
		// otherwise the remote copy stands
	}

	merged := make([]T, 0, len(byID))
	for _, rec := range byID {
		merged = append(merged, rec)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].RecordID() < merged[j].RecordID() })
	return merged, conflict
}

// mergeBodies merges every table of the two backup bodies and reports whether
// any table hit the equal-version tiebreak.
func mergeBodies(local, remote *models.BackupBody) (*models.BackupBody, bool) {
	merged := models.NewBackupBody()
	conflict := false

	var c bool
	merged.Accounts, c = mergeTable(local.Accounts, remote.Accounts)
	conflict = conflict || c
	merged.Transactions, c = mergeTable(local.Transactions, remote.Transactions)
	conflict = conflict || c
	merged.Budgets, c = mergeTable(local.Budgets, remote.Budgets)
	conflict = conflict || c
	merged.Holdings, c = mergeTable(local.Holdings, remote.Holdings)
	conflict = conflict || c
	merged.Properties, c = mergeTable(local.Properties, remote.Properties)
	conflict = conflict || c

	return merged, conflict
}
