package ledger

import (
	"github.com/peridotvault/icrc3-explorer/candid"
)

const (
	MethodGetBlocks = "icrc3_get_blocks"
	MethodMetadata  = "icrc1_metadata"
)

// Candid types of the ICRC-3 and ICRC-1 interfaces used by the explorer.
var (
	// ValueType is the ICRC3Value variant extended with the Nat64 case of
	// the legacy block format.
	ValueType = newValueType()

	GetBlocksRequestType = candid.RecordType(
		candid.Named("start", candid.Nat),
		candid.Named("length", candid.Nat),
	)

	GetBlocksArgsType = candid.Vec(GetBlocksRequestType)

	BlockWithIdType = candid.RecordType(
		candid.Named("id", candid.Nat),
		candid.Named("block", ValueType),
	)

	GetBlocksResultType = newGetBlocksResultType()

	MetadataValueType = candid.VariantType(
		candid.Named("Int", candid.Int),
		candid.Named("Nat", candid.Nat),
		candid.Named("Blob", candid.Vec(candid.Nat8)),
		candid.Named("Text", candid.Text),
	)

	MetadataResultType = candid.Vec(candid.Tuple(candid.Text, MetadataValueType))
)

// variant labels of ICRC3Value
var (
	labelInt   = candid.Hash("Int")
	labelNat   = candid.Hash("Nat")
	labelNat64 = candid.Hash("Nat64")
	labelText  = candid.Hash("Text")
	labelBlob  = candid.Hash("Blob")
	labelMap   = candid.Hash("Map")
	labelArray = candid.Hash("Array")
)

func newValueType() *candid.Type {
	v := &candid.Type{}
	*v = *candid.VariantType(
		candid.Named("Int", candid.Int),
		candid.Named("Nat", candid.Nat),
		candid.Named("Nat64", candid.Nat64),
		candid.Named("Text", candid.Text),
		candid.Named("Blob", candid.Vec(candid.Nat8)),
		candid.Named("Map", candid.Vec(candid.Tuple(candid.Text, v))),
		candid.Named("Array", candid.Vec(v)),
	)
	return v
}

func newGetBlocksResultType() *candid.Type {
	res := &candid.Type{}
	archived := candid.RecordType(
		candid.Named("args", GetBlocksArgsType),
		candid.Named("callback", candid.Func([]*candid.Type{GetBlocksArgsType}, []*candid.Type{res}, candid.ModeQuery)),
	)
	*res = *candid.RecordType(
		candid.Named("log_length", candid.Nat),
		candid.Named("blocks", candid.Vec(BlockWithIdType)),
		candid.Named("archived_blocks", candid.Vec(archived)),
	)
	return res
}
