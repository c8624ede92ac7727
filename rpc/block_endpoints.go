package rpc

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"github.com/peridotvault/icrc3-explorer/explorer"
	"github.com/peridotvault/icrc3-explorer/ledger"
	"github.com/peridotvault/icrc3-explorer/logger"
	"github.com/peridotvault/icrc3-explorer/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var errBlockNotFound = errors.New("no block data found")

type (
	BlockFetcher interface {
		FetchBlock(ctx context.Context, ledgerAddress string, index *big.Int) (*types.Block, bool)
		FetchMetadata(ctx context.Context, ledgerAddress string) (*ledger.TokenMetadata, bool)
	}

	blockAPI struct {
		fetcher BlockFetcher
		// load token metadata of the ledger for the decimals and symbol
		withMetadata bool
		log          *slog.Logger
		rw           *ResponseWriter
	}

	transactionPage struct {
		Ledger  string
		BlockID string
		View    *explorer.TransactionView
	}
)

/*
BlockEndpoints registers the transaction page, the landing page and the JSON
API returning the same transaction view.
*/
func BlockEndpoints(fetcher BlockFetcher, withMetadata bool, log *slog.Logger) RegistrarFunc {
	api := &blockAPI{
		fetcher:      fetcher,
		withMetadata: withMetadata,
		log:          log,
		rw: &ResponseWriter{LogErr: func(err error) {
			log.Error("writing response", logger.Error(err))
		}},
	}
	return func(r *mux.Router) {
		r.HandleFunc("/", api.indexPage).Methods(http.MethodGet)
		r.HandleFunc("/transaction", api.lookupRedirect).Methods(http.MethodGet)
		r.HandleFunc("/{ledger}/transaction/{blockId}", api.transactionPage).Methods(http.MethodGet)
		r.HandleFunc("/api/v1/ledgers/{ledger}/blocks/{blockId}", api.getBlock).Methods(http.MethodGet, http.MethodOptions)
	}
}

func (api *blockAPI) indexPage(w http.ResponseWriter, r *http.Request) {
	api.rw.WriteHTML(w, http.StatusOK, pages, "index", nil)
}

// lookupRedirect sends the landing page form to the transaction page.
func (api *blockAPI) lookupRedirect(w http.ResponseWriter, r *http.Request) {
	ledgerID := strings.TrimSpace(r.URL.Query().Get("ledger"))
	blockID := strings.TrimSpace(r.URL.Query().Get("block"))
	if ledgerID == "" || blockID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/"+url.PathEscape(ledgerID)+"/transaction/"+url.PathEscape(blockID), http.StatusSeeOther)
}

func (api *blockAPI) transactionPage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	page := transactionPage{
		Ledger:  vars["ledger"],
		BlockID: vars["blockId"],
	}
	page.View = api.loadView(r.Context(), page.Ledger, page.BlockID)
	code := http.StatusOK
	if page.View == nil {
		code = http.StatusNotFound
	}
	api.rw.WriteHTML(w, code, pages, "transaction", page)
}

func (api *blockAPI) getBlock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view := api.loadView(r.Context(), vars["ledger"], vars["blockId"])
	if view == nil {
		api.rw.ErrorResponse(w, http.StatusNotFound, errBlockNotFound)
		return
	}
	api.rw.WriteResponse(w, view)
}

/*
loadView returns nil when the block can't be shown, whatever the reason
(invalid parameters, failed query, block doesn't exist).
*/
func (api *blockAPI) loadView(ctx context.Context, ledgerID, blockID string) *explorer.TransactionView {
	index, ok := explorer.ParseBlockIndex(blockID)
	if !ok {
		api.log.DebugContext(ctx, "invalid block id", logger.Ledger(ledgerID), logger.Data(blockID))
		return nil
	}
	b, ok := api.fetcher.FetchBlock(ctx, ledgerID, index)
	if !ok {
		return nil
	}

	var opts []explorer.ViewOption
	if api.withMetadata {
		if md, ok := api.fetcher.FetchMetadata(ctx, ledgerID); ok {
			opts = append(opts, explorer.WithDecimals(uint(md.Decimals)), explorer.WithSymbol(md.Symbol))
		}
	}
	return explorer.Assemble(b, opts...)
}
