package models

import "time"

// Deposit is the durable per-transaction ledger row, keyed by tx hash.
// Every field except the credited trio may be refreshed on each
// reconciliation pass; Credited flips false→true at most once and
// CreditedAmount is immutable after that transition.
type Deposit struct {
	TxHash           string     `json:"tx_hash"`
	UserAddress      string     `json:"user_address"`
	DepositAddress   string     `json:"deposit_address"`
	ValueWei         int64      `json:"value_wei"`
	BlockNumber      int64      `json:"block_number"`
	Confirmations    int64      `json:"confirmations"`
	IsError          bool       `json:"is_error"`
	Credited         bool       `json:"credited"`
	CreditedAmount   int64      `json:"credited_amount"`
	CreditedAt       *time.Time `json:"credited_at,omitempty"`
	FromAddress      string     `json:"from_address,omitempty"`
	ComplianceStatus string     `json:"compliance_status,omitempty"`
	ComplianceReason string     `json:"compliance_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type CheckResponse struct {
	DepositAddress string `json:"deposit_address"`
	NewCredits     int64  `json:"new_credits"`
	Credits        int64  `json:"credits"`
}
