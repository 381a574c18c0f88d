package models

import "time"

// User is keyed by their wallet address (canonical lowercase hex).
type User struct {
	Address   string    `json:"address"`
	Credits   int64     `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

type UserResponse struct {
	Address string `json:"address"`
	Credits int64  `json:"credits"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
