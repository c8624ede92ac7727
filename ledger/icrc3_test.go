package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peridotvault/icrc3-explorer/candid"
	"github.com/peridotvault/icrc3-explorer/types"
)

var (
	ledgerID  = types.Principal{0, 0, 0, 0, 0, 0, 0, 2, 1, 1}
	archiveID = types.Principal{0, 0, 0, 0, 0, 0, 0, 7, 1, 1}
	accountID = types.Principal{0x04}
)

func transferBlock() types.Value {
	return types.Map{
		{Key: "phash", Value: types.Blob{1, 2, 3}},
		{Key: "ts", Value: types.NewNat(1_700_000_000_000_000_000)},
		{Key: "tx", Value: types.Map{
			{Key: "op", Value: types.Text("xfer")},
			{Key: "amt", Value: types.NewNat(123456789)},
			{Key: "from", Value: types.Array{types.Blob(accountID)}},
			{Key: "to", Value: types.Array{types.Blob(accountID), types.Blob(make([]byte, 32))}},
			{Key: "memo", Value: types.Blob("hello")},
			{Key: "created_at_time", Value: types.Nat64(42)},
			{Key: "delta", Value: types.NewInt(-5)},
		}},
	}
}

func TestGetBlocksResult_RoundTrip(t *testing.T) {
	src := &types.GetBlocksResult{
		LogLength: big.NewInt(1000),
		Blocks:    []*types.Block{{ID: big.NewInt(999), Block: transferBlock()}},
		ArchivedBlocks: []*types.ArchivedBlocks{{
			Args:     []types.GetBlocksRequest{types.NewGetBlocksRequest(big.NewInt(5), 1)},
			Callback: types.Callback{Canister: archiveID, Method: "get_archived_blocks"},
		}},
	}
	data, err := EncodeGetBlocksResult(src)
	require.NoError(t, err)

	values, err := candid.Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, values, 1)

	res, err := decodeGetBlocksResult(values[0])
	require.NoError(t, err)
	require.Equal(t, 0, res.LogLength.Cmp(big.NewInt(1000)))
	require.Len(t, res.Blocks, 1)
	require.Equal(t, 0, res.Blocks[0].ID.Cmp(big.NewInt(999)))
	require.Equal(t, transferBlock(), res.Blocks[0].Block)

	require.Len(t, res.ArchivedBlocks, 1)
	require.Equal(t, archiveID, res.ArchivedBlocks[0].Callback.Canister)
	require.Equal(t, "get_archived_blocks", res.ArchivedBlocks[0].Callback.Method)
	require.Len(t, res.ArchivedBlocks[0].Args, 1)
	require.EqualValues(t, 5, res.ArchivedBlocks[0].Args[0].Start.Int64())
	require.EqualValues(t, 1, res.ArchivedBlocks[0].Args[0].Length.Int64())
}

func TestDecodeValue(t *testing.T) {
	t.Run("unknown case is absent value", func(t *testing.T) {
		v, err := decodeValue(candid.NewVariant("Float", 1.5), 0)
		require.NoError(t, err)
		require.Nil(t, v)
	})

	t.Run("unknown case inside map", func(t *testing.T) {
		v, err := decodeValue(candid.Variant{ID: labelMap, Value: []any{
			candid.Record{0: "x", 1: candid.NewVariant("Bool", true)},
		}}, 0)
		require.NoError(t, err)
		require.Equal(t, types.Map{{Key: "x", Value: nil}}, v)
	})

	t.Run("not a variant", func(t *testing.T) {
		v, err := decodeValue("text", 0)
		require.ErrorIs(t, err, errUnexpectedShape)
		require.Nil(t, v)
	})

	t.Run("case with wrong payload", func(t *testing.T) {
		v, err := decodeValue(candid.Variant{ID: labelNat, Value: "1"}, 0)
		require.ErrorIs(t, err, errUnexpectedShape)
		require.Nil(t, v)
	})

	t.Run("map key is not text", func(t *testing.T) {
		v, err := decodeValue(candid.Variant{ID: labelMap, Value: []any{candid.Record{0: 1, 1: nil}}}, 0)
		require.ErrorIs(t, err, errUnexpectedShape)
		require.Nil(t, v)
	})

	t.Run("too deep", func(t *testing.T) {
		var v any = candid.Variant{ID: labelText, Value: "leaf"}
		for i := 0; i <= candid.MaxDepth+1; i++ {
			v = candid.Variant{ID: labelArray, Value: []any{v}}
		}
		_, err := decodeValue(v, 0)
		require.ErrorIs(t, err, candid.ErrMaxDepth)
	})
}

func TestDecodeGetBlocksResult_Errors(t *testing.T) {
	var tests = []struct {
		name  string
		input any
	}{
		{name: "not a record", input: []any{}},
		{name: "blocks missing", input: candid.Record{candid.Hash("archived_blocks"): []any{}}},
		{name: "archived blocks missing", input: candid.Record{candid.Hash("blocks"): []any{}}},
		{name: "block is not record", input: candid.Record{candid.Hash("blocks"): []any{1}, candid.Hash("archived_blocks"): []any{}}},
		{name: "callback is not func", input: candid.Record{
			candid.Hash("blocks"): []any{},
			candid.Hash("archived_blocks"): []any{candid.Record{
				candid.Hash("args"):     []any{},
				candid.Hash("callback"): "icrc3_get_blocks",
			}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := decodeGetBlocksResult(tt.input)
			require.ErrorIs(t, err, errUnexpectedShape)
			require.Nil(t, res)
		})
	}
}
