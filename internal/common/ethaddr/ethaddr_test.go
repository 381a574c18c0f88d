package ethaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("0x1111111111111111111111111111111111111111"))
	assert.True(t, IsValid("0xDeadBeefDeadBeefDeadBeefDeadBeefDeadBeef"))

	assert.False(t, IsValid(""))
	assert.False(t, IsValid("0x123"))
	assert.False(t, IsValid("1111111111111111111111111111111111111111"))
	assert.False(t, IsValid("0xZZ11111111111111111111111111111111111111"))
	assert.False(t, IsValid("0x11111111111111111111111111111111111111111"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t,
		"0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		Normalize("0xDeadBeefDeadBeefDeadBeefDeadBeefDeadBeef"))

	assert.Empty(t, Normalize("not-an-address"))
	assert.Empty(t, Normalize(""))
}

func TestIsTxHash(t *testing.T) {
	assert.True(t, IsTxHash("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	assert.True(t, IsTxHash("0xABCDEF0123456789abcdef0123456789abcdef0123456789abcdef0123456789"))

	assert.False(t, IsTxHash("0x1111111111111111111111111111111111111111"))
	assert.False(t, IsTxHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	assert.False(t, IsTxHash(""))
}
