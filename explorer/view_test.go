package explorer

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peridotvault/icrc3-explorer/types"
)

var (
	ownerA = types.Blob{0x04}
	ownerB = types.Blob{0, 0, 0, 0, 0, 0, 0, 2, 1, 1}
)

func newBlock(id uint64, tx types.Map) *types.Block {
	return &types.Block{
		ID: new(big.Int).SetUint64(id),
		Block: types.Map{
			{Key: "phash", Value: types.Blob{1, 2, 3}},
			{Key: "ts", Value: types.NewNat(1_700_000_000_123_456_789)},
			{Key: "tx", Value: tx},
		},
	}
}

func TestAssemble(t *testing.T) {
	t.Run("transfer", func(t *testing.T) {
		b := newBlock(42, types.Map{
			{Key: "op", Value: types.Text("xfer")},
			{Key: "amt", Value: types.NewNat(123456789)},
			{Key: "fee", Value: types.NewNat(10000)},
			{Key: "from", Value: types.Array{ownerA, types.Blob(make([]byte, 32))}},
			{Key: "to", Value: types.Array{ownerB}},
			{Key: "memo", Value: types.Blob("invoice 7")},
		})
		view := Assemble(b)
		require.Equal(t, &TransactionView{
			Index:     "42",
			Type:      "transfer",
			Timestamp: "Tue, 14 Nov 2023 22:13:20 GMT",
			From:      "2vxsx-fae",
			To:        "ryjl3-tyaaa-aaaaa-aaaba-cai",
			Amount:    "1.23456789",
			Fee:       "0.0001",
			Memo:      "invoice 7",
			MemoRaw:   []byte("invoice 7"),
		}, view)

		require.Equal(t, []Row{
			{Label: "Index", Value: "42"},
			{Label: "Type", Value: "transfer"},
			{Label: "Timestamp", Value: "Tue, 14 Nov 2023 22:13:20 GMT"},
			{Label: "From", Value: "2vxsx-fae"},
			{Label: "To", Value: "ryjl3-tyaaa-aaaaa-aaaba-cai"},
			{Label: "Amount", Value: "1.23456789"},
			{Label: "Fee", Value: "0.0001"},
			{Label: "Memo", Value: "invoice 7"},
		}, view.Rows())
	})

	t.Run("operation names", func(t *testing.T) {
		for op, want := range map[string]string{
			"xfer":    "transfer",
			"xmint":   "mint",
			"burn":    "burn",
			"approve": "approve",
			"XFER":    "XFER",
			"":        "-",
		} {
			view := Assemble(newBlock(0, types.Map{{Key: "op", Value: types.Text(op)}}))
			require.Equal(t, want, view.Type, "op %q", op)
		}
		// op of wrong type
		view := Assemble(newBlock(0, types.Map{{Key: "op", Value: types.NewNat(1)}}))
		require.Equal(t, "-", view.Type)
	})

	t.Run("token options", func(t *testing.T) {
		b := newBlock(1, types.Map{
			{Key: "op", Value: types.Text("xmint")},
			{Key: "amt", Value: types.Nat64(250)},
		})
		view := Assemble(b, WithDecimals(2), WithSymbol("TKN"))
		require.Equal(t, "2.5 TKN", view.Amount)
		require.Equal(t, "-", view.Fee)
		require.Equal(t, "mint", view.Type)
	})

	t.Run("wrong shapes render placeholder", func(t *testing.T) {
		b := &types.Block{
			ID: big.NewInt(3),
			Block: types.Map{
				{Key: "ts", Value: types.Text("yesterday")},
				{Key: "tx", Value: types.Map{
					{Key: "amt", Value: types.NewInt(5)},
					{Key: "fee", Value: types.Text("1")},
					{Key: "from", Value: types.Blob{0x04}},
					{Key: "to", Value: types.Array{}},
					{Key: "memo", Value: types.Text("not a blob")},
				}},
			},
		}
		require.Equal(t, &TransactionView{
			Index:     "3",
			Type:      "-",
			Timestamp: "-",
			From:      "-",
			To:        "-",
			Amount:    "-",
			Fee:       "-",
			Memo:      "-",
		}, Assemble(b))
	})

	t.Run("empty memo and owner render placeholder", func(t *testing.T) {
		b := newBlock(4, types.Map{
			{Key: "memo", Value: types.Blob{}},
			{Key: "to", Value: types.Array{types.Blob{}}},
		})
		view := Assemble(b)
		require.Equal(t, "-", view.Memo)
		require.Equal(t, "-", view.To)
		for _, r := range view.Rows() {
			require.NotEmpty(t, r.Value, r.Label)
		}
	})

	t.Run("tx is missing", func(t *testing.T) {
		b := &types.Block{ID: big.NewInt(9), Block: types.Map{{Key: "ts", Value: types.NewNat(0)}}}
		view := Assemble(b)
		require.Equal(t, "9", view.Index)
		require.Equal(t, "Thu, 01 Jan 1970 00:00:00 GMT", view.Timestamp)
		require.Equal(t, "-", view.Amount)
		require.Equal(t, "-", view.To)
	})

	t.Run("block is not a map", func(t *testing.T) {
		view := Assemble(&types.Block{ID: big.NewInt(1), Block: types.Text("x")})
		require.Equal(t, "1", view.Index)
		require.Equal(t, "-", view.Timestamp)
		require.Equal(t, "-", view.Type)
	})

	t.Run("timestamp out of range", func(t *testing.T) {
		ts := new(big.Int).Lsh(big.NewInt(1), 100)
		b := &types.Block{ID: big.NewInt(1), Block: types.Map{{Key: "ts", Value: types.Nat{V: ts}}}}
		require.Equal(t, "-", Assemble(b).Timestamp)
	})

	t.Run("nil block", func(t *testing.T) {
		view := Assemble(nil)
		for _, r := range view.Rows() {
			require.Equal(t, "-", r.Value, r.Label)
		}
	})
}

func TestTransactionView_JSON(t *testing.T) {
	view := Assemble(newBlock(5, types.Map{{Key: "memo", Value: types.Blob{0xca, 0xfe}}}))
	data, err := json.Marshal(view)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"index": "5",
		"type": "-",
		"timestamp": "Tue, 14 Nov 2023 22:13:20 GMT",
		"from": "-",
		"to": "-",
		"amount": "-",
		"fee": "-",
		"memo": "��",
		"memoRaw": "0xcafe"
	}`, string(data))
}

func TestParseBlockIndex(t *testing.T) {
	for _, s := range []string{"0", "42", "000123", "340282366920938463463374607431768211456"} {
		n, ok := ParseBlockIndex(s)
		require.True(t, ok, s)
		want, _ := new(big.Int).SetString(s, 10)
		require.Equal(t, 0, want.Cmp(n), s)
	}
	for _, s := range []string{"", "-1", "+1", "1e3", "0x10", " 1", "1_000", "12a"} {
		n, ok := ParseBlockIndex(s)
		require.False(t, ok, s)
		require.Nil(t, n, s)
	}
}
