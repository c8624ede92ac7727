package replica

import (
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/peridotvault/icrc3-explorer/candid"
	"github.com/peridotvault/icrc3-explorer/client"
	"github.com/peridotvault/icrc3-explorer/ledger"
	"github.com/peridotvault/icrc3-explorer/types"
)

type (
	// Canister maps query method names to their implementation. Returning
	// error from the method rejects the call.
	Canister map[string]func(arg []byte) ([]byte, error)

	// Replica is a fake IC replica serving query calls of the canisters.
	Replica struct {
		*httptest.Server
		canisters map[string]Canister
	}
)

/*
New starts fake replica, canisters are keyed by the textual form of the
canister id. The server is closed when the test finishes.
*/
func New(t *testing.T, canisters map[string]Canister) *Replica {
	r := &Replica{canisters: canisters}
	r.Server = httptest.NewServer(http.HandlerFunc(r.serveQuery))
	t.Cleanup(r.Server.Close)
	return r
}

func (r *Replica) serveQuery(w http.ResponseWriter, req *http.Request) {
	id, ok := strings.CutPrefix(req.URL.Path, "/api/v2/canister/")
	if !ok || req.Method != http.MethodPost {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	id, ok = strings.CutSuffix(id, "/query")
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var env client.Envelope
	if err := client.DecodeEnvelope(body, &env); err != nil {
		http.Error(w, fmt.Sprintf("decoding envelope: %v", err), http.StatusBadRequest)
		return
	}
	if types.Principal(env.Content.CanisterID).String() != id {
		http.Error(w, "canister id in the path and envelope do not match", http.StatusBadRequest)
		return
	}
	canister, ok := r.canisters[id]
	if !ok {
		http.Error(w, fmt.Sprintf("canister %s not found", id), http.StatusBadRequest)
		return
	}

	rsp := &client.QueryResponse{Status: "replied"}
	method, ok := canister[env.Content.MethodName]
	if !ok {
		rsp = reject(fmt.Errorf("canister %s has no query method '%s'", id, env.Content.MethodName))
	} else if reply, err := method(env.Content.Arg); err != nil {
		rsp = reject(err)
	} else {
		rsp.Reply = &client.Reply{Arg: reply}
	}

	data, err := client.EncodeEnvelope(rsp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", client.ApplicationCbor)
	_, _ = w.Write(data)
}

func reject(err error) *client.QueryResponse {
	return &client.QueryResponse{
		Status:        "rejected",
		RejectCode:    5,
		RejectMessage: err.Error(),
		ErrorCode:     "IC0503",
	}
}

/*
Ledger returns ledger canister holding blocks with indexes starting from
"first". Requests for blocks below "first" are pointed to the archive (when
archive is not nil).
*/
func Ledger(first uint64, blocks []types.Value, archive types.Principal, md *ledger.TokenMetadata) Canister {
	c := Canister{
		ledger.MethodGetBlocks: func(arg []byte) ([]byte, error) {
			start, length, err := blockRange(arg)
			if err != nil {
				return nil, err
			}
			res := &types.GetBlocksResult{LogLength: new(big.Int).SetUint64(first + uint64(len(blocks)))}
			switch {
			case start >= first:
				res.Blocks = selectBlocks(blocks, first, start, length)
			case archive != nil:
				res.ArchivedBlocks = []*types.ArchivedBlocks{{
					Args:     []types.GetBlocksRequest{types.NewGetBlocksRequest(new(big.Int).SetUint64(start), length)},
					Callback: types.Callback{Canister: archive, Method: ledger.MethodGetBlocks},
				}}
			}
			return ledger.EncodeGetBlocksResult(res)
		},
	}
	if md != nil {
		c[ledger.MethodMetadata] = func([]byte) ([]byte, error) {
			return ledger.EncodeTokenMetadata(md)
		}
	}
	return c
}

// Archive returns archive canister holding blocks with indexes starting from "first".
func Archive(first uint64, blocks []types.Value) Canister {
	return Canister{
		ledger.MethodGetBlocks: func(arg []byte) ([]byte, error) {
			start, length, err := blockRange(arg)
			if err != nil {
				return nil, err
			}
			res := &types.GetBlocksResult{LogLength: new(big.Int).SetUint64(first + uint64(len(blocks)))}
			if start >= first {
				res.Blocks = selectBlocks(blocks, first, start, length)
			}
			return ledger.EncodeGetBlocksResult(res)
		},
	}
}

func selectBlocks(blocks []types.Value, first, start, length uint64) []*types.Block {
	var res []*types.Block
	for i := start; i < start+length && i-first < uint64(len(blocks)); i++ {
		res = append(res, &types.Block{ID: new(big.Int).SetUint64(i), Block: blocks[i-first]})
	}
	return res
}

// blockRange returns the first range of the icrc3_get_blocks argument.
func blockRange(arg []byte) (start, length uint64, _ error) {
	values, err := candid.Unmarshal(arg)
	if err != nil {
		return 0, 0, fmt.Errorf("decoding arguments: %w", err)
	}
	if len(values) != 1 {
		return 0, 0, fmt.Errorf("expected one argument, got %d", len(values))
	}
	reqs, ok := values[0].([]any)
	if !ok || len(reqs) == 0 {
		return 0, 0, fmt.Errorf("expected non-empty vector of ranges, got %v", values[0])
	}
	rec, ok := reqs[0].(candid.Record)
	if !ok {
		return 0, 0, fmt.Errorf("expected record, got %T", reqs[0])
	}
	s, _ := rec.Get("start")
	l, _ := rec.Get("length")
	sn, ok1 := s.(*big.Int)
	ln, ok2 := l.(*big.Int)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("invalid range %v", rec)
	}
	return sn.Uint64(), ln.Uint64(), nil
}
