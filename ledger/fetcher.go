package ledger

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/peridotvault/icrc3-explorer/logger"
	"github.com/peridotvault/icrc3-explorer/observability"
	"github.com/peridotvault/icrc3-explorer/types"
)

// fetch outcomes, values of the "result" label
const (
	outcomeLedger   = "ledger"
	outcomeArchive  = "archive"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

type (
	BlockSource interface {
		GetBlocks(ctx context.Context, canister types.Principal, method string, reqs []types.GetBlocksRequest) (*types.GetBlocksResult, error)
		Metadata(ctx context.Context, canister types.Principal) (*TokenMetadata, error)
	}

	/*
	Fetcher looks up single blocks. When the ledger no longer holds the block
	the first archive the ledger points to is queried. Failures are logged and
	reported as "not found".
	*/
	Fetcher struct {
		src     BlockSource
		log     *slog.Logger
		updMetr func(outcome string)
	}
)

func NewFetcher(src BlockSource, obs Observability) *Fetcher {
	return &Fetcher{
		src:     src,
		log:     obs.Logger(),
		updMetr: fetchMetrics(obs.PrometheusRegisterer(), obs.Logger()),
	}
}

/*
FetchBlock returns block with given index from the ledger (or its archive).
The second return value is false when the block was not found for whatever
reason (invalid address, transport error, block does not exist).
*/
func (f *Fetcher) FetchBlock(ctx context.Context, ledgerAddress string, index *big.Int) (*types.Block, bool) {
	log := f.log.With(logger.Ledger(ledgerAddress), logger.BlockIndex(index))
	if index == nil || index.Sign() < 0 {
		log.DebugContext(ctx, "invalid block index")
		f.updMetr(outcomeNotFound)
		return nil, false
	}
	canister, err := types.PrincipalFromText(ledgerAddress)
	if err != nil {
		log.WarnContext(ctx, "parsing ledger address", logger.Error(err))
		f.updMetr(outcomeError)
		return nil, false
	}

	reqs := []types.GetBlocksRequest{types.NewGetBlocksRequest(index, 1)}
	res, err := f.src.GetBlocks(ctx, canister, MethodGetBlocks, reqs)
	if err != nil {
		log.WarnContext(ctx, "querying ledger blocks", logger.Error(err))
		f.updMetr(outcomeError)
		return nil, false
	}
	if len(res.Blocks) > 0 {
		f.updMetr(outcomeLedger)
		return res.Blocks[0], true
	}
	if len(res.ArchivedBlocks) == 0 {
		log.DebugContext(ctx, "block not found in ledger")
		f.updMetr(outcomeNotFound)
		return nil, false
	}

	// only the first archive is consulted
	cb := res.ArchivedBlocks[0].Callback
	log = log.With(slog.String("archive", cb.Canister.String()))
	archived, err := f.src.GetBlocks(ctx, cb.Canister, cb.MethodOrDefault(), reqs)
	if err != nil {
		log.WarnContext(ctx, "querying archive blocks", logger.Error(err))
		f.updMetr(outcomeError)
		return nil, false
	}
	if len(archived.Blocks) == 0 {
		log.DebugContext(ctx, "block not found in archive")
		f.updMetr(outcomeNotFound)
		return nil, false
	}
	f.updMetr(outcomeArchive)
	return archived.Blocks[0], true
}

/*
FetchMetadata returns token metadata of the ledger, the second return value
is false when it could not be loaded.
*/
func (f *Fetcher) FetchMetadata(ctx context.Context, ledgerAddress string) (*TokenMetadata, bool) {
	canister, err := types.PrincipalFromText(ledgerAddress)
	if err != nil {
		f.log.WarnContext(ctx, "parsing ledger address", logger.Ledger(ledgerAddress), logger.Error(err))
		return nil, false
	}
	md, err := f.src.Metadata(ctx, canister)
	if err != nil {
		f.log.WarnContext(ctx, "querying token metadata", logger.Ledger(ledgerAddress), logger.Error(err))
		return nil, false
	}
	return md, true
}

func fetchMetrics(reg prometheus.Registerer, log *slog.Logger) func(outcome string) {
	fetchCnt, err := observability.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: observability.Namespace,
		Subsystem: "ledger",
		Name:      "block_fetch_total",
		Help:      "Number of block lookups by result",
	}, []string{"result"}))
	if err != nil {
		log.Error("creating block fetch counter", logger.Error(err))
		return func(string) { /* NOP */ }
	}

	return func(outcome string) {
		fetchCnt.WithLabelValues(outcome).Inc()
	}
}
