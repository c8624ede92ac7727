package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ainvaltin/httpsrv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/peridotvault/icrc3-explorer/client"
	"github.com/peridotvault/icrc3-explorer/ledger"
	"github.com/peridotvault/icrc3-explorer/rpc"
)

const (
	flagNameICUrl          = "ic-url"
	flagNameQueryTimeout   = "query-timeout"
	flagNameAddress        = "address"
	flagNameMetricsAddress = "metrics-address"
	flagNameTokenMetadata  = "token-metadata"

	// the explorer only serves GET requests
	maxBodySize = 1 << 10

	// a page loads the token metadata, the block and the archived block
	// one after another
	queriesPerRequest = 3
)

type (
	icConfig struct {
		Base         *baseConfiguration
		ICUrl        string
		QueryTimeout time.Duration
	}

	serveConfig struct {
		icConfig
		Address        string
		MetricsAddress string
		TokenMetadata  bool
	}
)

func (c *icConfig) addICFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.ICUrl, flagNameICUrl, client.DefaultHost, "URL of the Internet Computer API boundary node or replica")
	cmd.Flags().DurationVar(&c.QueryTimeout, flagNameQueryTimeout, 30*time.Second, "timeout of a single canister query")
}

/*
writeTimeout returns the write timeout of the explorer server, long enough
for the sequential canister queries of a single request. Zero means no
timeout.
*/
func (c *icConfig) writeTimeout() time.Duration {
	if c.QueryTimeout <= 0 {
		return 0
	}
	return queriesPerRequest*c.QueryTimeout + 5*time.Second
}

// fetcher returns block fetcher querying the configured IC host.
func (c *icConfig) fetcher() (*ledger.Fetcher, error) {
	agent, err := client.New(c.ICUrl, client.WithTimeout(c.QueryTimeout))
	if err != nil {
		return nil, fmt.Errorf("creating IC agent: %w", err)
	}
	obs := c.Base.observe
	return ledger.NewFetcher(ledger.NewClient(agent, obs), obs), nil
}

func newServeCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &serveConfig{icConfig: icConfig{Base: baseConfig}}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "starts the explorer web server",
		Long:  "starts HTTP server serving the transaction pages and the JSON API of ICRC-3 ledgers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), config)
		},
	}
	config.addICFlags(cmd)
	cmd.Flags().StringVar(&config.Address, flagNameAddress, "localhost:8080", "address the HTTP server listens on")
	cmd.Flags().StringVar(&config.MetricsAddress, flagNameMetricsAddress, "", "address of the Prometheus metrics endpoint, disabled when not set")
	cmd.Flags().BoolVar(&config.TokenMetadata, flagNameTokenMetadata, false, "load token decimals and symbol from the ledger metadata")
	return cmd
}

func runServe(ctx context.Context, config *serveConfig) error {
	obs := config.Base.observe
	log := obs.Logger()

	fetcher, err := config.fetcher()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv := rpc.NewRESTServer(config.Address, maxBodySize, obs, rpc.BlockEndpoints(fetcher, config.TokenMetadata, log))
		srv.WriteTimeout = config.writeTimeout()
		return runServer(ctx, srv, "explorer", log)
	})

	if config.MetricsAddress != "" {
		g.Go(func() error {
			srv := rpc.NewRESTServer(config.MetricsAddress, maxBodySize, obs, rpc.MetricsEndpoints(obs.MetricsHandler()))
			return runServer(ctx, srv, "metrics", log)
		})
	}

	return g.Wait()
}

func runServer(ctx context.Context, srv *http.Server, name string, log *slog.Logger) error {
	log.InfoContext(ctx, fmt.Sprintf("starting %s server", name), slog.String("address", srv.Addr))
	if err := httpsrv.Run(ctx, *srv, httpsrv.ShutdownTimeout(5*time.Second)); err != nil {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}
