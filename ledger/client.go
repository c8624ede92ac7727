package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/peridotvault/icrc3-explorer/candid"
	"github.com/peridotvault/icrc3-explorer/logger"
	"github.com/peridotvault/icrc3-explorer/observability"
	"github.com/peridotvault/icrc3-explorer/types"
)

type (
	// Querier sends query calls to canisters, implemented by client.Agent.
	Querier interface {
		Query(ctx context.Context, canister types.Principal, method string, arg []byte) ([]byte, error)
	}

	Observability interface {
		Logger() *slog.Logger
		PrometheusRegisterer() prometheus.Registerer
	}

	// Client is a typed client of ICRC-3 ledger and archive canisters.
	Client struct {
		agent   Querier
		updMetr func(method string, start time.Time, err error)
	}
)

func NewClient(agent Querier, obs Observability) *Client {
	return &Client{
		agent:   agent,
		updMetr: queryMetrics(obs.PrometheusRegisterer(), obs.Logger()),
	}
}

/*
GetBlocks calls method (icrc3_get_blocks or the method of an archive callback)
of the canister with given ranges.
*/
func (c *Client) GetBlocks(ctx context.Context, canister types.Principal, method string, reqs []types.GetBlocksRequest) (_ *types.GetBlocksResult, rErr error) {
	defer func(start time.Time) { c.updMetr(method, start, rErr) }(time.Now())

	arg, err := candid.Marshal([]*candid.Type{GetBlocksArgsType}, []any{encodeGetBlocksArgs(reqs)})
	if err != nil {
		return nil, fmt.Errorf("encoding %s arguments: %w", method, err)
	}
	values, err := c.query(ctx, canister, method, arg)
	if err != nil {
		return nil, err
	}
	res, err := decodeGetBlocksResult(values[0])
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", method, err)
	}
	return res, nil
}

// Metadata calls icrc1_metadata of the ledger.
func (c *Client) Metadata(ctx context.Context, canister types.Principal) (_ *TokenMetadata, rErr error) {
	defer func(start time.Time) { c.updMetr(MethodMetadata, start, rErr) }(time.Now())

	arg, err := candid.Marshal(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("encoding %s arguments: %w", MethodMetadata, err)
	}
	values, err := c.query(ctx, canister, MethodMetadata, arg)
	if err != nil {
		return nil, err
	}
	md, err := decodeTokenMetadata(values[0])
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", MethodMetadata, err)
	}
	return md, nil
}

// query returns decoded reply which is guaranteed to have at least one value.
func (c *Client) query(ctx context.Context, canister types.Principal, method string, arg []byte) ([]any, error) {
	reply, err := c.agent.Query(ctx, canister, method, arg)
	if err != nil {
		return nil, fmt.Errorf("calling %s of %s: %w", method, canister, err)
	}
	values, err := candid.Unmarshal(reply)
	if err != nil {
		return nil, fmt.Errorf("decoding %s reply: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s reply has no values", method)
	}
	return values, nil
}

func queryMetrics(reg prometheus.Registerer, log *slog.Logger) func(method string, start time.Time, err error) {
	callDur, err := observability.Register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: observability.Namespace,
		Subsystem: "ledger",
		Name:      "query_duration_seconds",
		Help:      "How long it took to get response to the canister query",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "status"}))
	if err != nil {
		log.Error("creating query duration histogram", logger.Error(err))
		return func(string, time.Time, error) { /* NOP */ }
	}

	return func(method string, start time.Time, err error) {
		callDur.WithLabelValues(method, observability.ErrStatus(err)).Observe(time.Since(start).Seconds())
	}
}
