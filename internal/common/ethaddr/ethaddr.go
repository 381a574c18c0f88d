// Package ethaddr centralizes wallet address and tx hash normalization.
// Every table is keyed by the canonical lowercase hex form.
package ethaddr

import (
	"regexp"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// IsValid reports whether s looks like a 0x-prefixed 20-byte hex address.
func IsValid(s string) bool {
	return strings.HasPrefix(s, "0x") && ethcommon.IsHexAddress(s)
}

// Normalize returns the canonical lowercase form, and "" for malformed input.
func Normalize(s string) string {
	if !IsValid(s) {
		return ""
	}
	return strings.ToLower(s)
}

// IsTxHash reports whether s looks like a 0x-prefixed 32-byte hex hash.
func IsTxHash(s string) bool {
	return txHashPattern.MatchString(s)
}
