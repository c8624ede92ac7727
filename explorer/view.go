package explorer

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/peridotvault/icrc3-explorer/types"
)

// placeholder is shown for fields which are missing or have unexpected shape.
const placeholder = "-"

// TimestampLayout matches the UTC date format of web browsers.
const TimestampLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

var opNames = map[string]string{
	"xfer":  "transfer",
	"xmint": "mint",
}

type (
	// TransactionView holds display ready fields of a block.
	TransactionView struct {
		Index     string        `json:"index"`
		Type      string        `json:"type"`
		Timestamp string        `json:"timestamp"`
		From      string        `json:"from"`
		To        string        `json:"to"`
		Amount    string        `json:"amount"`
		Fee       string        `json:"fee"`
		Memo      string        `json:"memo"`
		MemoRaw   hexutil.Bytes `json:"memoRaw,omitempty"`
	}

	Row struct {
		Label string
		Value string
	}

	ViewOption func(*viewOptions)

	viewOptions struct {
		decimals uint
		symbol   string
	}
)

// WithDecimals sets the count of decimals of the token amounts.
func WithDecimals(decimals uint) ViewOption {
	return func(o *viewOptions) {
		o.decimals = decimals
	}
}

// WithSymbol sets token symbol which is appended to the amount and fee.
func WithSymbol(symbol string) ViewOption {
	return func(o *viewOptions) {
		o.symbol = symbol
	}
}

/*
Assemble builds the view of the block. Fields which are missing from the
block or have unexpected type are rendered as "-".
*/
func Assemble(b *types.Block, opts ...ViewOption) *TransactionView {
	o := viewOptions{decimals: DefaultDecimals}
	for _, opt := range opts {
		opt(&o)
	}

	view := &TransactionView{
		Index:     placeholder,
		Type:      placeholder,
		Timestamp: placeholder,
		From:      placeholder,
		To:        placeholder,
		Amount:    placeholder,
		Fee:       placeholder,
		Memo:      placeholder,
	}
	if b == nil {
		return view
	}
	if b.ID != nil {
		view.Index = b.ID.String()
	}
	if ts, ok := Lookup(b.Block, "ts"); ok {
		view.Timestamp = formatTimestamp(ts)
	}

	tx, ok := Lookup(b.Block, "tx")
	if !ok {
		return view
	}
	if op, ok := Lookup(tx, "op"); ok {
		if e := Extract(op); e.Kind == Text && e.Scalar != "" {
			view.Type = opName(e.Scalar)
		}
	}
	view.From = account(tx, "from")
	view.To = account(tx, "to")
	view.Amount = o.amount(tx, "amt")
	view.Fee = o.amount(tx, "fee")
	if memo, ok := Lookup(tx, "memo"); ok {
		if blob, ok := memo.(types.Blob); ok {
			if e := Extract(blob); e.Scalar != "" {
				view.Memo = e.Scalar
			}
			view.MemoRaw = hexutil.Bytes(blob)
		}
	}
	return view
}

// Rows returns the fields of the view as label/value pairs in display order.
func (v *TransactionView) Rows() []Row {
	return []Row{
		{Label: "Index", Value: v.Index},
		{Label: "Type", Value: v.Type},
		{Label: "Timestamp", Value: v.Timestamp},
		{Label: "From", Value: v.From},
		{Label: "To", Value: v.To},
		{Label: "Amount", Value: v.Amount},
		{Label: "Fee", Value: v.Fee},
		{Label: "Memo", Value: v.Memo},
	}
}

func opName(op string) string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return op
}

// account returns the owner of the account stored in the field, the
// subaccount is not shown.
func account(tx types.Value, field string) string {
	v, ok := Lookup(tx, field)
	if !ok {
		return placeholder
	}
	arr, ok := v.(types.Array)
	if !ok || len(arr) == 0 {
		return placeholder
	}
	owner, ok := arr[0].(types.Blob)
	if !ok {
		return placeholder
	}
	if s := DecodeAccount(owner); s != "" {
		return s
	}
	return placeholder
}

func (o viewOptions) amount(tx types.Value, field string) string {
	v, ok := Lookup(tx, field)
	if !ok {
		return placeholder
	}
	n, ok := natural(v)
	if !ok {
		return placeholder
	}
	s := FormatAmount(n, o.decimals)
	if o.symbol != "" {
		s += " " + o.symbol
	}
	return s
}

var nanosPerSecond = big.NewInt(int64(time.Second))

func formatTimestamp(v types.Value) string {
	ns, ok := natural(v)
	if !ok {
		return placeholder
	}
	sec, nsec := new(big.Int).QuoRem(ns, nanosPerSecond, new(big.Int))
	if !sec.IsInt64() {
		return placeholder
	}
	return time.Unix(sec.Int64(), nsec.Int64()).UTC().Format(TimestampLayout)
}

// natural returns the value of Nat or Nat64.
func natural(v types.Value) (*big.Int, bool) {
	switch v := v.(type) {
	case types.Nat:
		return v.V, v.V != nil
	case types.Nat64:
		return new(big.Int).SetUint64(uint64(v)), true
	default:
		return nil, false
	}
}
