package rpc

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peridotvault/icrc3-explorer/explorer"
	testobserve "github.com/peridotvault/icrc3-explorer/internal/testutils/observability"
	"github.com/peridotvault/icrc3-explorer/ledger"
	"github.com/peridotvault/icrc3-explorer/types"
)

const ledgerAddr = "ryjl3-tyaaa-aaaaa-aaaba-cai"

func transferBlock(index int64) *types.Block {
	return &types.Block{
		ID: big.NewInt(index),
		Block: types.Map{
			{Key: "ts", Value: types.NewNat(1_700_000_000_000_000_000)},
			{Key: "tx", Value: types.Map{
				{Key: "op", Value: types.Text("xfer")},
				{Key: "amt", Value: types.NewNat(250)},
				{Key: "to", Value: types.Array{types.Blob{0x04}}},
				{Key: "memo", Value: types.Blob("<b>hi</b>")},
			}},
		},
	}
}

func blockFound(t *testing.T) *blockFetcherMock {
	return &blockFetcherMock{
		fetchBlock: func(ctx context.Context, ledgerAddress string, index *big.Int) (*types.Block, bool) {
			require.Equal(t, ledgerAddr, ledgerAddress)
			return transferBlock(index.Int64()), true
		},
	}
}

func serve(t *testing.T, fetcher BlockFetcher, withMetadata bool, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	obs := testobserve.Default(t)
	recorder := httptest.NewRecorder()
	NewRESTServer("", 1024, obs, BlockEndpoints(fetcher, withMetadata, obs.Logger())).Handler.ServeHTTP(recorder, req)
	return recorder
}

func TestTransactionPage(t *testing.T) {
	t.Run("block found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/"+ledgerAddr+"/transaction/7", nil)
		rsp := serve(t, blockFound(t), false, req)
		require.Equal(t, http.StatusOK, rsp.Code)
		require.Equal(t, "text/html; charset=utf-8", rsp.Header().Get("Content-Type"))
		body := rsp.Body.String()
		require.Contains(t, body, "<h1>Transaction Details</h1>")
		require.Contains(t, body, "Canister ID: "+ledgerAddr)
		require.Contains(t, body, "Block ID: 7")
		require.Contains(t, body, `<div class="label">Type</div><div class="value">transfer</div>`)
		require.Contains(t, body, `<div class="label">Amount</div><div class="value">0.0000025</div>`)
		require.Contains(t, body, `<div class="label">To</div><div class="value">2vxsx-fae</div>`)
		require.Contains(t, body, `<div class="label">Fee</div><div class="value">-</div>`)
		// memo is escaped
		require.Contains(t, body, "&lt;b&gt;hi&lt;/b&gt;")
		require.NotContains(t, body, "No block data found.")
	})

	t.Run("block not found", func(t *testing.T) {
		fetcher := &blockFetcherMock{
			fetchBlock: func(ctx context.Context, ledgerAddress string, index *big.Int) (*types.Block, bool) {
				return nil, false
			},
		}
		req := httptest.NewRequest(http.MethodGet, "/"+ledgerAddr+"/transaction/7", nil)
		rsp := serve(t, fetcher, false, req)
		require.Equal(t, http.StatusNotFound, rsp.Code)
		body := rsp.Body.String()
		require.Contains(t, body, "Transaction Details")
		require.Contains(t, body, "Block ID: 7")
		require.Contains(t, body, "No block data found.")
	})

	t.Run("invalid block id", func(t *testing.T) {
		for _, blockID := range []string{"abc", "-1", "1.5", "0x10"} {
			req := httptest.NewRequest(http.MethodGet, "/"+ledgerAddr+"/transaction/"+blockID, nil)
			rsp := serve(t, &blockFetcherMock{}, false, req)
			require.Equal(t, http.StatusNotFound, rsp.Code, blockID)
			require.Contains(t, rsp.Body.String(), "No block data found.", blockID)
		}
	})

	t.Run("with token metadata", func(t *testing.T) {
		fetcher := blockFound(t)
		fetcher.fetchMetadata = func(ctx context.Context, ledgerAddress string) (*ledger.TokenMetadata, bool) {
			return &ledger.TokenMetadata{Symbol: "TKN", Decimals: 2}, true
		}
		req := httptest.NewRequest(http.MethodGet, "/"+ledgerAddr+"/transaction/7", nil)
		rsp := serve(t, fetcher, true, req)
		require.Equal(t, http.StatusOK, rsp.Code)
		require.Contains(t, rsp.Body.String(), `<div class="value">2.5 TKN</div>`)
	})

	t.Run("token metadata not available", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/"+ledgerAddr+"/transaction/7", nil)
		rsp := serve(t, blockFound(t), true, req)
		require.Equal(t, http.StatusOK, rsp.Code)
		require.Contains(t, rsp.Body.String(), `<div class="value">0.0000025</div>`)
	})
}

func TestGetBlockAPI(t *testing.T) {
	t.Run("block found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ledgers/"+ledgerAddr+"/blocks/12", nil)
		req.Header.Set("Origin", "http://example.com")
		rsp := serve(t, blockFound(t), false, req)
		require.Equal(t, http.StatusOK, rsp.Code)
		require.Equal(t, "application/json", rsp.Header().Get("Content-Type"))
		require.NotEmpty(t, rsp.Header().Get("Access-Control-Allow-Origin"))

		view := &explorer.TransactionView{}
		require.NoError(t, json.NewDecoder(rsp.Body).Decode(view))
		require.Equal(t, "12", view.Index)
		require.Equal(t, "transfer", view.Type)
		require.Equal(t, "Tue, 14 Nov 2023 22:13:20 GMT", view.Timestamp)
		require.Equal(t, "0.0000025", view.Amount)
		require.Equal(t, "<b>hi</b>", string(view.MemoRaw))
	})

	t.Run("block not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ledgers/"+ledgerAddr+"/blocks/12", nil)
		rsp := serve(t, &blockFetcherMock{}, false, req)
		require.Equal(t, http.StatusNotFound, rsp.Code)
		require.JSONEq(t, `{"message":"no block data found"}`, rsp.Body.String())
	})
}

func TestIndexPage(t *testing.T) {
	rsp := serve(t, &blockFetcherMock{}, false, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rsp.Code)
	require.Contains(t, rsp.Body.String(), `<form method="get" action="/transaction">`)

	rsp = serve(t, &blockFetcherMock{}, false, httptest.NewRequest(http.MethodGet, "/transaction?ledger="+ledgerAddr+"&block=+5+", nil))
	require.Equal(t, http.StatusSeeOther, rsp.Code)
	require.Equal(t, "/"+ledgerAddr+"/transaction/5", rsp.Header().Get("Location"))

	rsp = serve(t, &blockFetcherMock{}, false, httptest.NewRequest(http.MethodGet, "/transaction?ledger="+ledgerAddr, nil))
	require.Equal(t, http.StatusSeeOther, rsp.Code)
	require.Equal(t, "/", rsp.Header().Get("Location"))

	rsp = serve(t, &blockFetcherMock{}, false, httptest.NewRequest(http.MethodGet, "/foo/bar", nil))
	require.Equal(t, http.StatusNotFound, rsp.Code)
}

func TestRESTServer_Metrics(t *testing.T) {
	obs := testobserve.Default(t)
	srv := NewRESTServer("", 1024, obs, BlockEndpoints(&blockFetcherMock{}, false, obs.Logger()), MetricsEndpoints(obs.MetricsHandler()))
	require.Equal(t, DefaultWriteTimeout, srv.WriteTimeout)
	require.Greater(t, int64(srv.WriteTimeout), int64(3*30*time.Second))

	recorder := httptest.NewRecorder()
	srv.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/"+ledgerAddr+"/transaction/1", nil))
	require.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = httptest.NewRecorder()
	srv.Handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `icrc3_explorer_http_requests_total{code="404",route="/{ledger}/transaction/{blockId}"} 1`)
}

type blockFetcherMock struct {
	fetchBlock    func(ctx context.Context, ledgerAddress string, index *big.Int) (*types.Block, bool)
	fetchMetadata func(ctx context.Context, ledgerAddress string) (*ledger.TokenMetadata, bool)
}

func (m *blockFetcherMock) FetchBlock(ctx context.Context, ledgerAddress string, index *big.Int) (*types.Block, bool) {
	if m.fetchBlock != nil {
		return m.fetchBlock(ctx, ledgerAddress, index)
	}
	return nil, false
}

func (m *blockFetcherMock) FetchMetadata(ctx context.Context, ledgerAddress string) (*ledger.TokenMetadata, bool) {
	if m.fetchMetadata != nil {
		return m.fetchMetadata(ctx, ledgerAddress)
	}
	return nil, false
}
