package models

import "time"

// BackupBodyVersion is the format version of the decrypted backup body.
const BackupBodyVersion = 1

// BackupBody is the decrypted backup blob: one array per syncable table.
// The same shape serves the encrypted sync path, the plaintext export/import
// path, and local snapshots, so one decoder handles all three.
type BackupBody struct {
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`

	Accounts     []Account     `json:"accounts"`
	Transactions []Transaction `json:"transactions"`
	Budgets      []Budget      `json:"budgets"`
	Holdings     []Holding     `json:"holdings"`
	Properties   []Property    `json:"properties"`
}

// NewBackupBody returns an empty body stamped with the current time.
func NewBackupBody() *BackupBody {
	return &BackupBody{Version: BackupBodyVersion, Timestamp: time.Now().UTC()}
}

// MaxVersion returns the highest SyncVersion across every table in the body,
// or 0 for an empty body.
func (b *BackupBody) MaxVersion() int64 {
	var max int64
	scan := func(v int64) {
		if v > max {
			max = v
		}
	}
	for _, r := range b.Accounts {
		scan(r.SyncVersion)
	}
	for _, r := range b.Transactions {
		scan(r.SyncVersion)
	}
	for _, r := range b.Budgets {
		scan(r.SyncVersion)
	}
	for _, r := range b.Holdings {
		scan(r.SyncVersion)
	}
	for _, r := range b.Properties {
		scan(r.SyncVersion)
	}
	return max
}

// IsEmpty reports whether the body holds no records at all.
func (b *BackupBody) IsEmpty() bool {
	return len(b.Accounts) == 0 && len(b.Transactions) == 0 &&
		len(b.Budgets) == 0 && len(b.Holdings) == 0 && len(b.Properties) == 0
}
