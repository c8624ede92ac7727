package explorer

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is used when the ledger metadata is not known.
const DefaultDecimals = 8

// MaxDecimals is the largest count of decimals an ICRC-1 ledger can declare.
const MaxDecimals = math.MaxUint8

/*
FormatAmount renders amount given in the smallest ledger unit as a decimal
number with the given count of decimals. Trailing zeros of the fraction are
dropped, the result is never rounded. Amounts with more than MaxDecimals
decimals are rendered as "-".
*/
func FormatAmount(amount *big.Int, decimals uint) string {
	if amount == nil || decimals > MaxDecimals {
		return placeholder
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}
