package id

import (
	"testing"

	"linkport/core"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	const port = "0x1111111111111111111111111111111111111111"

	a := MessageID(1, port, 1)
	assert.Equal(t, a, MessageID(1, port, 1))
	assert.NotEqual(t, a, MessageID(1, port, 2))
	assert.NotEqual(t, a, MessageID(2, port, 1))
	assert.NotEqual(t, a, Derive("loan", 1, port, 1))
}

func TestPoolAddress(t *testing.T) {
	const factory = "0x2222222222222222222222222222222222222222"

	eth := PoolAddress(factory, core.NativeAsset)
	_, ok := core.NormalizeAddress(eth)
	assert.True(t, ok)
	assert.Equal(t, eth, PoolAddress(factory, core.NativeAsset))
	assert.NotEqual(t, eth, PoolAddress(factory, "0xdAC17F958D2ee523a2206206994597C13D831ec7"))
}
