package core

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// NativeAsset sentinel for the chain's native currency
const NativeAsset = "0x0000000000000000000000000000000000000000"

// Asset valuation and precision of a token on one chain
type Asset struct {
	ID       string          `json:"id"`
	Symbol   string          `json:"symbol,omitempty"`
	Decimals int32           `json:"decimals"`
	Price    decimal.Decimal `json:"price"`
	Feed     string          `json:"feed,omitempty"`
}

func IsNative(asset string) bool {
	return strings.EqualFold(asset, NativeAsset)
}

// NormalizeAddress checksum hex address, ok is false for malformed input
func NormalizeAddress(s string) (string, bool) {
	if !common.IsHexAddress(s) {
		return "", false
	}

	return common.HexToAddress(s).Hex(), true
}

// SameAddress compare two hex addresses ignoring case
func SameAddress(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// FitsPrecision report whether amount has at most decimals fractional digits
func FitsPrecision(amount decimal.Decimal, decimals int32) bool {
	return amount.Truncate(decimals).Equal(amount)
}
