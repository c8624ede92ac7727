package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/peridotvault/icrc3-explorer/candid"
	"github.com/peridotvault/icrc3-explorer/types"
)

var errUnexpectedShape = errors.New("unexpected shape")

// decodeGetBlocksResult converts the generic Candid form of GetBlocksResult.
func decodeGetBlocksResult(v any) (*types.GetBlocksResult, error) {
	rec, ok := v.(candid.Record)
	if !ok {
		return nil, fmt.Errorf("%w: GetBlocksResult is %T", errUnexpectedShape, v)
	}
	res := &types.GetBlocksResult{}
	if ll, ok := rec.Get("log_length"); ok {
		if res.LogLength, ok = ll.(*big.Int); !ok {
			return nil, fmt.Errorf("%w: log_length is %T", errUnexpectedShape, ll)
		}
	}

	blocks, err := vecField(rec, "blocks")
	if err != nil {
		return nil, err
	}
	for i, item := range blocks {
		b, err := decodeBlock(item)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		res.Blocks = append(res.Blocks, b)
	}

	archived, err := vecField(rec, "archived_blocks")
	if err != nil {
		return nil, err
	}
	for i, item := range archived {
		a, err := decodeArchivedBlocks(item)
		if err != nil {
			return nil, fmt.Errorf("archived blocks %d: %w", i, err)
		}
		res.ArchivedBlocks = append(res.ArchivedBlocks, a)
	}
	return res, nil
}

func decodeBlock(v any) (*types.Block, error) {
	rec, ok := v.(candid.Record)
	if !ok {
		return nil, fmt.Errorf("%w: BlockWithId is %T", errUnexpectedShape, v)
	}
	id, _ := rec.Get("id")
	n, ok := id.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: block id is %T", errUnexpectedShape, id)
	}
	raw, _ := rec.Get("block")
	value, err := decodeValue(raw, 0)
	if err != nil {
		return nil, err
	}
	return &types.Block{ID: n, Block: value}, nil
}

func decodeArchivedBlocks(v any) (*types.ArchivedBlocks, error) {
	rec, ok := v.(candid.Record)
	if !ok {
		return nil, fmt.Errorf("%w: ArchivedBlocks is %T", errUnexpectedShape, v)
	}
	res := &types.ArchivedBlocks{}
	args, err := vecField(rec, "args")
	if err != nil {
		return nil, err
	}
	for _, a := range args {
		req, err := decodeGetBlocksRequest(a)
		if err != nil {
			return nil, err
		}
		res.Args = append(res.Args, req)
	}
	cb, _ := rec.Get("callback")
	ref, ok := cb.(candid.FuncRef)
	if !ok {
		return nil, fmt.Errorf("%w: callback is %T", errUnexpectedShape, cb)
	}
	res.Callback = types.Callback{Canister: ref.Principal, Method: ref.Method}
	return res, nil
}

func decodeGetBlocksRequest(v any) (types.GetBlocksRequest, error) {
	rec, ok := v.(candid.Record)
	if !ok {
		return types.GetBlocksRequest{}, fmt.Errorf("%w: GetBlocksRequest is %T", errUnexpectedShape, v)
	}
	start, _ := rec.Get("start")
	length, _ := rec.Get("length")
	s, ok1 := start.(*big.Int)
	l, ok2 := length.(*big.Int)
	if !ok1 || !ok2 {
		return types.GetBlocksRequest{}, fmt.Errorf("%w: GetBlocksRequest fields are %T and %T", errUnexpectedShape, start, length)
	}
	return types.GetBlocksRequest{Start: s, Length: l}, nil
}

// decodeValue converts the generic form of ICRC3Value. Unknown variant
// cases decode to nil, ie absent value.
func decodeValue(v any, depth int) (types.Value, error) {
	if depth > candid.MaxDepth {
		return nil, candid.ErrMaxDepth
	}
	vv, ok := v.(candid.Variant)
	if !ok {
		return nil, fmt.Errorf("%w: value is %T", errUnexpectedShape, v)
	}
	switch vv.ID {
	case labelInt:
		if n, ok := vv.Value.(*big.Int); ok {
			return types.Int{V: n}, nil
		}
	case labelNat:
		if n, ok := vv.Value.(*big.Int); ok {
			return types.Nat{V: n}, nil
		}
	case labelNat64:
		if n, ok := vv.Value.(uint64); ok {
			return types.Nat64(n), nil
		}
	case labelText:
		if s, ok := vv.Value.(string); ok {
			return types.Text(s), nil
		}
	case labelBlob:
		if b, ok := vv.Value.([]byte); ok {
			return types.Blob(b), nil
		}
	case labelMap:
		entries, ok := vv.Value.([]any)
		if !ok {
			break
		}
		m := make(types.Map, 0, len(entries))
		for i, e := range entries {
			pair, ok := e.(candid.Record)
			if !ok {
				return nil, fmt.Errorf("%w: map entry %d is %T", errUnexpectedShape, i, e)
			}
			key, _ := pair.Tuple(0)
			name, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("%w: map entry %d key is %T", errUnexpectedShape, i, key)
			}
			raw, _ := pair.Tuple(1)
			value, err := decodeValue(raw, depth+1)
			if err != nil {
				return nil, fmt.Errorf("map entry %q: %w", name, err)
			}
			m = append(m, types.MapEntry{Key: name, Value: value})
		}
		return m, nil
	case labelArray:
		items, ok := vv.Value.([]any)
		if !ok {
			break
		}
		arr := make(types.Array, 0, len(items))
		for i, item := range items {
			value, err := decodeValue(item, depth+1)
			if err != nil {
				return nil, fmt.Errorf("array item %d: %w", i, err)
			}
			arr = append(arr, value)
		}
		return arr, nil
	default:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: value case %d holds %T", errUnexpectedShape, vv.ID, vv.Value)
}

func vecField(rec candid.Record, name string) ([]any, error) {
	v, ok := rec.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: field %s is missing", errUnexpectedShape, name)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: field %s is %T", errUnexpectedShape, name, v)
	}
	return items, nil
}

// EncodeGetBlocksResult returns the Candid encoding of res in the form a
// ledger canister replies to icrc3_get_blocks.
func EncodeGetBlocksResult(res *types.GetBlocksResult) ([]byte, error) {
	blocks := make([]any, 0, len(res.Blocks))
	for i, b := range res.Blocks {
		value, err := encodeValue(b.Block)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, candid.Record{
			candid.Hash("id"):    b.ID,
			candid.Hash("block"): value,
		})
	}
	archived := make([]any, 0, len(res.ArchivedBlocks))
	for _, a := range res.ArchivedBlocks {
		archived = append(archived, candid.Record{
			candid.Hash("args"):     encodeGetBlocksArgs(a.Args),
			candid.Hash("callback"): candid.FuncRef{Principal: a.Callback.Canister, Method: a.Callback.MethodOrDefault()},
		})
	}
	logLength := res.LogLength
	if logLength == nil {
		logLength = new(big.Int)
	}
	return candid.Marshal([]*candid.Type{GetBlocksResultType}, []any{candid.Record{
		candid.Hash("log_length"):      logLength,
		candid.Hash("blocks"):          blocks,
		candid.Hash("archived_blocks"): archived,
	}})
}

func encodeGetBlocksArgs(reqs []types.GetBlocksRequest) []any {
	args := make([]any, 0, len(reqs))
	for _, r := range reqs {
		args = append(args, candid.Record{
			candid.Hash("start"):  r.Start,
			candid.Hash("length"): r.Length,
		})
	}
	return args
}

func encodeValue(v types.Value) (any, error) {
	switch v := v.(type) {
	case types.Int:
		return candid.Variant{ID: labelInt, Value: v.V}, nil
	case types.Nat:
		return candid.Variant{ID: labelNat, Value: v.V}, nil
	case types.Nat64:
		return candid.Variant{ID: labelNat64, Value: uint64(v)}, nil
	case types.Text:
		return candid.Variant{ID: labelText, Value: string(v)}, nil
	case types.Blob:
		return candid.Variant{ID: labelBlob, Value: []byte(v)}, nil
	case types.Map:
		entries := make([]any, 0, len(v))
		for _, e := range v {
			value, err := encodeValue(e.Value)
			if err != nil {
				return nil, fmt.Errorf("map entry %q: %w", e.Key, err)
			}
			entries = append(entries, candid.Record{0: e.Key, 1: value})
		}
		return candid.Variant{ID: labelMap, Value: entries}, nil
	case types.Array:
		items := make([]any, 0, len(v))
		for i, item := range v {
			value, err := encodeValue(item)
			if err != nil {
				return nil, fmt.Errorf("array item %d: %w", i, err)
			}
			items = append(items, value)
		}
		return candid.Variant{ID: labelArray, Value: items}, nil
	default:
		return nil, fmt.Errorf("can not encode value of type %T", v)
	}
}
