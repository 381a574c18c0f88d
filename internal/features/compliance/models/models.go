package models

import "time"

// Compliance statuses recorded on deposit rows. None of them is a
// database-enforced terminal state: re-running the pipeline may move a
// held deposit to ok once consent lands or the sanctions set changes.
const (
	StatusOK                       = "ok"
	StatusBlockedSanctions         = "blocked_sanctions"
	StatusHeldScreeningUnavailable = "held_screening_unavailable"
	StatusHeldNoConsent            = "held_no_consent"
)

// Screening subject types.
const (
	SubjectWallet = "wallet"
	SubjectTxFrom = "tx_from"
)

// ScreeningSource tags every audit record with the dataset consulted.
const ScreeningSource = "ofac"

// ConsentKindPurchase is the consent kind the deposit pipeline requires.
const ConsentKindPurchase = "purchase"

// ConsentEvent is an immutable clickwrap record. Policy versions are
// stamped at write time so later policy changes never alter historical
// evidence.
type ConsentEvent struct {
	ID                 int64     `json:"id"`
	UserAddress        string    `json:"user_address"`
	Kind               string    `json:"kind"`
	ValueWei           *int64    `json:"value_wei,omitempty"`
	Tier               string    `json:"tier,omitempty"`
	TermsVersion       string    `json:"terms_version"`
	PrivacyVersion     string    `json:"privacy_version"`
	DisclosuresVersion string    `json:"disclosures_version"`
	IP                 string    `json:"-"`
	UserAgent          string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

// ScreeningEvent is an append-only audit record, written on every
// sanctions check regardless of outcome.
type ScreeningEvent struct {
	ID           int64     `json:"id"`
	SubjectType  string    `json:"subject_type"`
	SubjectValue string    `json:"subject_value"`
	Matched      bool      `json:"matched"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}

// SanctionsSnapshot is the singleton cached view of the sanctioned
// address set. It is replaced wholesale on refresh, never patched.
type SanctionsSnapshot struct {
	UpdatedAt time.Time           `json:"updated_at"`
	SHA256    string              `json:"sha256"`
	Addresses map[string]struct{} `json:"-"`
}

// Decision is the outcome of the deposit compliance pipeline.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}
