package models

import "time"

// Ledger selects which amount collection an entry belongs to. Admin-created
// and agent-created entries are structurally identical but live in separate
// collections with separate access rules.
type Ledger string

const (
	AdminLedger Ledger = "admin"
	AgentLedger Ledger = "agent"
)

// AmountEntry is one row of the amount ledger. Username names whose ledger
// the entry belongs to; CreatedBy records the identity that wrote it ("Admin"
// for the admin ledger, the agent's own username for the agent ledger).
// BakayaAmount is derived: bakaya = round2(amount - wasool), recomputed
// server-side on every write.
type AmountEntry struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	CreatedBy    string    `json:"createdBy"`
	Amount       float64   `json:"amount"`
	WasoolAmount float64   `json:"wasoolAmount"`
	BakayaAmount float64   `json:"bakayaAmount"`
	Date         string    `json:"date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
