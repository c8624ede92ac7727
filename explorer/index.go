package explorer

import (
	"math/big"
)

// ParseBlockIndex parses s as a non-negative base 10 integer. Signs,
// separators and whitespace are not accepted.
func ParseBlockIndex(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return nil, false
		}
	}
	return new(big.Int).SetString(s, 10)
}
