package types

import (
	"math/big"
)

// DefaultGetBlocksMethod is the method archives are queried with when the
// callback reference carries no method name.
const DefaultGetBlocksMethod = "icrc3_get_blocks"

type (
	// Block is a single ledger entry: its index in the ledger log and
	// the block value, normally a Map with "tx" and "ts" fields.
	Block struct {
		ID    *big.Int
		Block Value
	}

	GetBlocksRequest struct {
		Start  *big.Int
		Length *big.Int
	}

	GetBlocksResult struct {
		LogLength      *big.Int
		Blocks         []*Block
		ArchivedBlocks []*ArchivedBlocks
	}

	// ArchivedBlocks describes a range the ledger has moved to an archive
	// canister, reachable through Callback.
	ArchivedBlocks struct {
		Args     []GetBlocksRequest
		Callback Callback
	}

	Callback struct {
		Canister Principal
		Method   string
	}
)

func NewGetBlocksRequest(start *big.Int, length uint64) GetBlocksRequest {
	return GetBlocksRequest{
		Start:  new(big.Int).Set(start),
		Length: new(big.Int).SetUint64(length),
	}
}

// MethodOrDefault returns the callback method, DefaultGetBlocksMethod when
// it is empty.
func (c Callback) MethodOrDefault() string {
	if c.Method == "" {
		return DefaultGetBlocksMethod
	}
	return c.Method
}
