package models

import "time"

// PoolAddress is one custodial receiving address. An address with a nil
// AssignedTo and IsActive true is eligible for allocation.
type PoolAddress struct {
	Address    string     `json:"address"`
	AssignedTo *string    `json:"assigned_to,omitempty"`
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
	IsActive   bool       `json:"is_active"`
}

type AssignResponse struct {
	DepositAddress string `json:"deposit_address"`
}
