package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
admins:
  - "0xAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaa"
transport:
  base_fee: "0.1"
chains:
  - selector: 11155111
    name: sepolia
    port: "0xA1A1a1A1a1A1a1A1a1A1a1A1a1A1a1A1a1A1a1A1"
    fee_asset: "0x514910771AF9Ca656af840dff83E8264EcF986CA"
    max_ltv: "0.8"
    routes:
      - selector: 97
        port: "0xB2B2b2B2b2B2b2B2b2B2b2B2b2B2b2B2b2B2b2B2"
    pools:
      - asset: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
        fee_rate: 30
`

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "linkport.yaml")
	require.Nil(t, os.WriteFile(file, []byte(sample), 0o600))

	var cfg Config
	require.Nil(t, Load(file, &cfg))

	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "@every 1m", cfg.Expiry.Spec)
	assert.Equal(t, "0.1", cfg.Transport.BaseFee)
	require.Len(t, cfg.Chains, 1)

	c := cfg.Chains[0]
	assert.Equal(t, uint64(11155111), c.Selector)
	assert.Equal(t, "0.8", c.MaxLTV)
	assert.Equal(t, "0.85", c.LiquidationThreshold)
	assert.Equal(t, int64(3600), c.LockTimeout)
	require.Len(t, c.Routes, 1)
	assert.Equal(t, uint64(97), c.Routes[0].Selector)
	require.Len(t, c.Pools, 1)
	assert.Equal(t, int64(30), c.Pools[0].FeeRate)
}

func TestValidate(t *testing.T) {
	chain := Chain{
		Selector: 1,
		Port:     "0xA1A1a1A1a1A1a1A1a1A1a1A1a1A1a1A1a1A1a1A1",
		FeeAsset: "0x514910771AF9Ca656af840dff83E8264EcF986CA",
	}

	cfg := Config{Chains: []Chain{chain}}
	defaults(&cfg)
	assert.Nil(t, Validate(&cfg))

	chain = cfg.Chains[0]

	t.Run("duplicated", func(t *testing.T) {
		cfg := Config{Chains: []Chain{chain, chain}}
		assert.NotNil(t, Validate(&cfg))
	})

	t.Run("bad port", func(t *testing.T) {
		c := chain
		c.Port = "port"
		assert.NotNil(t, Validate(&Config{Chains: []Chain{c}}))
	})

	t.Run("bad endpoint", func(t *testing.T) {
		c := chain
		c.PriceEndpoint = "::"
		assert.NotNil(t, Validate(&Config{Chains: []Chain{c}}))
	})

	t.Run("ltv over threshold", func(t *testing.T) {
		c := chain
		c.MaxLTV = "0.9"
		c.LiquidationThreshold = "0.8"
		assert.NotNil(t, Validate(&Config{Chains: []Chain{c}}))
	})
}
