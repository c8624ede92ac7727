package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testnet "github.com/peridotvault/icrc3-explorer/internal/testutils/net"
)

func TestServeCmd(t *testing.T) {
	r := startReplica(t)
	addr := fmt.Sprintf("localhost:%d", testnet.SharedPortManager.GetRandomFreePort(t))
	metricsAddr := fmt.Sprintf("localhost:%d", testnet.SharedPortManager.GetRandomFreePort(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		app := New(testLoggerFactory(t))
		args := fmt.Sprintf("serve --home %s --ic-url %s --address %s --metrics-address %s --token-metadata", t.TempDir(), r.URL, addr, metricsAddr)
		app.baseCmd.SetArgs(strings.Fields(args))
		done <- app.Execute(ctx)
	}()

	get := func(url string) (int, string) {
		rsp, err := http.Get(url) // #nosec G107
		if err != nil {
			return 0, err.Error()
		}
		defer rsp.Body.Close()
		body, _ := io.ReadAll(rsp.Body)
		return rsp.StatusCode, string(body)
	}

	require.Eventually(t, func() bool {
		code, _ := get("http://" + addr + "/")
		return code == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	code, body := get(fmt.Sprintf("http://%s/%s/transaction/1", addr, testLedger))
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `<div class="value">burn</div>`)
	require.Contains(t, body, `<div class="value">0.05 TKN</div>`)

	code, body = get(fmt.Sprintf("http://%s/%s/transaction/9", addr, testLedger))
	require.Equal(t, http.StatusNotFound, code)
	require.Contains(t, body, "No block data found.")

	code, body = get(fmt.Sprintf("http://%s/api/v1/ledgers/%s/blocks/2", addr, testLedger))
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"type":"transfer"`)

	code, body = get("http://" + metricsAddr + "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `icrc3_explorer_ledger_block_fetch_total{result="archive"} 1`)
	require.Contains(t, body, `icrc3_explorer_ledger_query_duration_seconds_count{method="icrc1_metadata",status="ok"}`)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("serve command didn't stop")
	}
}

func Test_icConfig_writeTimeout(t *testing.T) {
	c := &icConfig{QueryTimeout: 30 * time.Second}
	require.Equal(t, 95*time.Second, c.writeTimeout())

	c.QueryTimeout = time.Minute
	require.Equal(t, 185*time.Second, c.writeTimeout())

	c.QueryTimeout = 0
	require.Zero(t, c.writeTimeout())
}
