package chain

import (
	"strings"
	"sync"
)

// Explorer describes the block-explorer frontend for a chain family.
type Explorer struct {
	Name     string
	BaseURL  string
	Keywords []string // Substrings matched against the uppercased network name
}

// TxURL returns the explorer link for a transaction hash.
func (e Explorer) TxURL(hash string) string {
	return e.BaseURL + "/tx/" + hash
}

// AddressURL returns the explorer link for an account address.
func (e Explorer) AddressURL(addr string) string {
	return e.BaseURL + "/address/" + addr
}

var (
	registry []Explorer
	mu       sync.RWMutex

	// Fallback when no keyword matches. Network names arrive in the
	// ETH_MAINNET style, so mainnet etherscan is the safe default.
	fallback = Explorer{Name: "etherscan", BaseURL: "https://etherscan.io"}
)

// Register adds an explorer to the global registry. Explorers are
// consulted in registration order; the first keyword match wins.
func Register(e Explorer) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, e)
}

// Resolve picks the explorer for a network name by case-insensitive
// keyword match. Unknown networks resolve to the default explorer.
func Resolve(network string) Explorer {
	upper := strings.ToUpper(network)
	mu.RLock()
	defer mu.RUnlock()
	for _, e := range registry {
		for _, kw := range e.Keywords {
			if strings.Contains(upper, strings.ToUpper(kw)) {
				return e
			}
		}
	}
	return fallback
}

// Default returns the explorer used for unmatched networks.
func Default() Explorer {
	return fallback
}

// Built-in explorers
func init() {
	Register(Explorer{
		Name:     "polygonscan",
		BaseURL:  "https://polygonscan.com",
		Keywords: []string{"POLYGON", "MATIC"},
	})
}
