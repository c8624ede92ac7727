package ledger

import (
	"fmt"
	"math/big"

	"github.com/peridotvault/icrc3-explorer/candid"
)

const (
	MetadataSymbol   = "icrc1:symbol"
	MetadataName     = "icrc1:name"
	MetadataDecimals = "icrc1:decimals"
	MetadataFee      = "icrc1:fee"
)

// TokenMetadata is the subset of icrc1_metadata entries used for
// presenting amounts.
type TokenMetadata struct {
	Name     string
	Symbol   string
	Decimals uint8
	Fee      *big.Int
}

func decodeTokenMetadata(v any) (*TokenMetadata, error) {
	entries, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: metadata is %T", errUnexpectedShape, v)
	}
	md := &TokenMetadata{}
	hasDecimals := false
	for i, e := range entries {
		pair, ok := e.(candid.Record)
		if !ok {
			return nil, fmt.Errorf("%w: metadata entry %d is %T", errUnexpectedShape, i, e)
		}
		k, _ := pair.Tuple(0)
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("%w: metadata entry %d key is %T", errUnexpectedShape, i, k)
		}
		raw, _ := pair.Tuple(1)
		value, ok := raw.(candid.Variant)
		if !ok {
			return nil, fmt.Errorf("%w: metadata entry %q value is %T", errUnexpectedShape, key, raw)
		}
		switch key {
		case MetadataSymbol:
			md.Symbol, _ = value.Value.(string)
		case MetadataName:
			md.Name, _ = value.Value.(string)
		case MetadataDecimals:
			n, ok := value.Value.(*big.Int)
			if !ok || n.Sign() < 0 || n.BitLen() > 8 {
				return nil, fmt.Errorf("invalid %s value %v", MetadataDecimals, value.Value)
			}
			md.Decimals = uint8(n.Uint64())
			hasDecimals = true
		case MetadataFee:
			md.Fee, _ = value.Value.(*big.Int)
		}
	}
	if !hasDecimals {
		return nil, fmt.Errorf("metadata has no %s entry", MetadataDecimals)
	}
	return md, nil
}

// EncodeTokenMetadata returns the Candid encoding of md in the form a
// ledger canister replies to icrc1_metadata.
func EncodeTokenMetadata(md *TokenMetadata) ([]byte, error) {
	entries := []any{
		candid.Record{0: MetadataDecimals, 1: candid.NewVariant("Nat", uint64(md.Decimals))},
		candid.Record{0: MetadataName, 1: candid.NewVariant("Text", md.Name)},
		candid.Record{0: MetadataSymbol, 1: candid.NewVariant("Text", md.Symbol)},
	}
	if md.Fee != nil {
		entries = append(entries, candid.Record{0: MetadataFee, 1: candid.NewVariant("Nat", md.Fee)})
	}
	return candid.Marshal([]*candid.Type{MetadataResultType}, []any{entries})
}
