package ledger

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peridotvault/icrc3-explorer/candid"
	testobserve "github.com/peridotvault/icrc3-explorer/internal/testutils/observability"
	"github.com/peridotvault/icrc3-explorer/types"
)

func TestClient_GetBlocks(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		agent := &querierMock{
			query: func(ctx context.Context, canister types.Principal, method string, arg []byte) ([]byte, error) {
				require.Equal(t, ledgerID, canister)
				require.Equal(t, MethodGetBlocks, method)
				// vec record {start: nat; length: nat} holding one range
				require.Equal(t, mustHex(t, "4449444c026d016c02e2e8ada0087de6a99ef8097d0100010701"), arg)
				return EncodeGetBlocksResult(&types.GetBlocksResult{
					LogLength: big.NewInt(10),
					Blocks:    []*types.Block{{ID: big.NewInt(7), Block: types.Text("blk")}},
				})
			},
		}
		c := NewClient(agent, testobserve.Default(t))
		res, err := c.GetBlocks(ctx, ledgerID, MethodGetBlocks, []types.GetBlocksRequest{types.NewGetBlocksRequest(big.NewInt(7), 1)})
		require.NoError(t, err)
		require.EqualValues(t, 10, res.LogLength.Int64())
		require.Len(t, res.Blocks, 1)
		require.Equal(t, types.Text("blk"), res.Blocks[0].Block)
		require.Empty(t, res.ArchivedBlocks)
	})

	t.Run("query fails", func(t *testing.T) {
		c := NewClient(&querierMock{}, testobserve.Default(t))
		res, err := c.GetBlocks(ctx, ledgerID, "get_blocks", nil)
		require.EqualError(t, err, `calling get_blocks of `+ledgerID.String()+`: not implemented`)
		require.Nil(t, res)
	})

	t.Run("reply is not candid", func(t *testing.T) {
		agent := &querierMock{
			query: func(ctx context.Context, canister types.Principal, method string, arg []byte) ([]byte, error) {
				return []byte("foobar"), nil
			},
		}
		res, err := NewClient(agent, testobserve.Default(t)).GetBlocks(ctx, ledgerID, MethodGetBlocks, nil)
		require.ErrorIs(t, err, candid.ErrInvalidMagic)
		require.Nil(t, res)
	})

	t.Run("reply has no values", func(t *testing.T) {
		agent := &querierMock{
			query: func(ctx context.Context, canister types.Principal, method string, arg []byte) ([]byte, error) {
				return candid.Marshal(nil, nil)
			},
		}
		res, err := NewClient(agent, testobserve.Default(t)).GetBlocks(ctx, ledgerID, MethodGetBlocks, nil)
		require.EqualError(t, err, "icrc3_get_blocks reply has no values")
		require.Nil(t, res)
	})

	t.Run("reply of wrong type", func(t *testing.T) {
		agent := &querierMock{
			query: func(ctx context.Context, canister types.Principal, method string, arg []byte) ([]byte, error) {
				return candid.Marshal([]*candid.Type{candid.Text}, []any{"foo"})
			},
		}
		res, err := NewClient(agent, testobserve.Default(t)).GetBlocks(ctx, ledgerID, MethodGetBlocks, nil)
		require.ErrorIs(t, err, errUnexpectedShape)
		require.Nil(t, res)
	})
}

func TestClient_Metadata(t *testing.T) {
	agent := &querierMock{
		query: func(ctx context.Context, canister types.Principal, method string, arg []byte) ([]byte, error) {
			require.Equal(t, MethodMetadata, method)
			require.Equal(t, []byte("DIDL\x00\x00"), arg)
			return EncodeTokenMetadata(&TokenMetadata{Symbol: "ckBTC", Name: "ckBTC", Decimals: 8, Fee: big.NewInt(10)})
		},
	}
	md, err := NewClient(agent, testobserve.Default(t)).Metadata(context.Background(), ledgerID)
	require.NoError(t, err)
	require.Equal(t, "ckBTC", md.Symbol)
	require.EqualValues(t, 8, md.Decimals)
	require.EqualValues(t, 10, md.Fee.Int64())
}

type querierMock struct {
	query func(ctx context.Context, canister types.Principal, method string, arg []byte) ([]byte, error)
}

func (m *querierMock) Query(ctx context.Context, canister types.Principal, method string, arg []byte) ([]byte, error) {
	if m.query != nil {
		return m.query(ctx, canister, method, arg)
	}
	return nil, errors.New("not implemented")
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
