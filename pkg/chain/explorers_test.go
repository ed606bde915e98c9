package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	// 1. Test Built-in keyword matches
	e := Resolve("MATIC_MAINNET")
	assert.Equal(t, "polygonscan", e.Name)
	assert.Equal(t, "https://polygonscan.com", e.BaseURL)

	e = Resolve("POLYGON_AMOY")
	assert.Equal(t, "polygonscan", e.Name)

	// 2. Matching is case-insensitive on the network name
	e = Resolve("polygon_mainnet")
	assert.Equal(t, "polygonscan", e.Name)

	// 3. Test Fallback
	e = Resolve("ETH_MAINNET")
	assert.Equal(t, "etherscan", e.Name)
	assert.Equal(t, "https://etherscan.io", e.BaseURL)

	e = Resolve("SOME_UNKNOWN_NET")
	assert.Equal(t, Default(), e)

	e = Resolve("")
	assert.Equal(t, "etherscan", e.Name)
}

func TestRegister(t *testing.T) {
	Register(Explorer{
		Name:     "basescan",
		BaseURL:  "https://basescan.org",
		Keywords: []string{"BASE"},
	})

	e := Resolve("BASE_MAINNET")
	assert.Equal(t, "basescan", e.Name)
	assert.Equal(t, "https://basescan.org", e.BaseURL)
}

func TestExplorerURLs(t *testing.T) {
	e := Default()
	assert.Equal(t, "https://etherscan.io/tx/0xabc", e.TxURL("0xabc"))
	assert.Equal(t, "https://etherscan.io/address/0xdef", e.AddressURL("0xdef"))
}
