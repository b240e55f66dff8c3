// Package models defines the syncable record types of the ledger and the
// serialized backup body exchanged with remote backends.
package models

// Syncable is implemented by every record participating in cross-device
// reconciliation. SyncVersion strictly increases on each local mutation;
// Deleted marks a soft delete so the deletion itself can propagate.
type Syncable interface {
	RecordID() string
	Version() int64
	IsDeleted() bool
}

// Account is a bank account, credit card, wallet or similar balance holder.
// Balance is in integer minor currency units (cents).
type Account struct {
	ID          string `json:"id"`
	SyncVersion int64  `json:"syncVersion"`
	Deleted     bool   `json:"isDeleted"`

	Name     string `json:"name"`
	Type     string `json:"type"` // checking, savings, credit, super, ...
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"`
}

func (a Account) RecordID() string { return a.ID }
func (a Account) Version() int64   { return a.SyncVersion }
func (a Account) IsDeleted() bool  { return a.Deleted }

func (a Account) WithVersion(v int64) Account { a.SyncVersion = v; return a }
func (a Account) WithDeleted(d bool) Account  { a.Deleted = d; return a }

// Transaction is a single ledger movement on an account.
// Amount is in integer minor units, negative for outflows.
// Date is an RFC 3339 date string.
type Transaction struct {
	ID          string `json:"id"`
	SyncVersion int64  `json:"syncVersion"`
	Deleted     bool   `json:"isDeleted"`

	AccountID   string `json:"accountId"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      int64  `json:"amount"`
}

func (t Transaction) RecordID() string { return t.ID }
func (t Transaction) Version() int64   { return t.SyncVersion }
func (t Transaction) IsDeleted() bool  { return t.Deleted }

func (t Transaction) WithVersion(v int64) Transaction { t.SyncVersion = v; return t }
func (t Transaction) WithDeleted(d bool) Transaction  { t.Deleted = d; return t }

// Budget is a per-category monthly spending limit in minor units.
type Budget struct {
	ID          string `json:"id"`
	SyncVersion int64  `json:"syncVersion"`
	Deleted     bool   `json:"isDeleted"`

	Category string `json:"category"`
	Limit    int64  `json:"limit"`
	Currency string `json:"currency"`
}

func (b Budget) RecordID() string { return b.ID }
func (b Budget) Version() int64   { return b.SyncVersion }
func (b Budget) IsDeleted() bool  { return b.Deleted }

func (b Budget) WithVersion(v int64) Budget { b.SyncVersion = v; return b }
func (b Budget) WithDeleted(d bool) Budget  { b.Deleted = d; return b }

// Holding is an investment position: units held of a symbol plus cost basis
// in minor units.
type Holding struct {
	ID          string `json:"id"`
	SyncVersion int64  `json:"syncVersion"`
	Deleted     bool   `json:"isDeleted"`

	AccountID string `json:"accountId"`
	Symbol    string `json:"symbol"`
	Units     int64  `json:"units"` // scaled by 1e4 to stay integral
	CostBasis int64  `json:"costBasis"`
	Currency  string `json:"currency"`
}

func (h Holding) RecordID() string { return h.ID }
func (h Holding) Version() int64   { return h.SyncVersion }
func (h Holding) IsDeleted() bool  { return h.Deleted }

func (h Holding) WithVersion(v int64) Holding { h.SyncVersion = v; return h }
func (h Holding) WithDeleted(d bool) Holding  { h.Deleted = d; return h }

// Property is a real-estate asset with purchase price and current estimated
// value in minor units.
type Property struct {
	ID          string `json:"id"`
	SyncVersion int64  `json:"syncVersion"`
	Deleted     bool   `json:"isDeleted"`

	Address       string `json:"address"`
	PurchaseDate  string `json:"purchaseDate"`
	PurchasePrice int64  `json:"purchasePrice"`
	CurrentValue  int64  `json:"currentValue"`
	Currency      string `json:"currency"`
}

func (p Property) RecordID() string { return p.ID }
func (p Property) Version() int64   { return p.SyncVersion }
func (p Property) IsDeleted() bool  { return p.Deleted }

func (p Property) WithVersion(v int64) Property { p.SyncVersion = v; return p }
func (p Property) WithDeleted(d bool) Property  { p.Deleted = d; return p }

// ConflictState marks whether the last sync needed conflict resolution.
type ConflictState string

const (
	ConflictNone     ConflictState = "none"
	ConflictDetected ConflictState = "detected"
	ConflictResolved ConflictState = "resolved"
)

// SyncMetadata is the singleton sync bookkeeping row.
type SyncMetadata struct {
	LastSyncVersion int64
	ConflictState   ConflictState
}
