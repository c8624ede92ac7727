package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/peridotvault/icrc3-explorer/explorer"
)

type blockConfig struct {
	icConfig
	TokenMetadata bool
}

func newBlockCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &blockConfig{icConfig: icConfig{Base: baseConfig}}
	cmd := &cobra.Command{
		Use:   "block <ledger canister id> <block index>",
		Short: "prints the transaction of the ledger block",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execBlockCmd(cmd, config, args[0], args[1])
		},
	}
	config.addICFlags(cmd)
	cmd.Flags().BoolVar(&config.TokenMetadata, flagNameTokenMetadata, false, "load token decimals and symbol from the ledger metadata")
	return cmd
}

func execBlockCmd(cmd *cobra.Command, config *blockConfig, ledgerID, blockID string) error {
	index, ok := explorer.ParseBlockIndex(blockID)
	if !ok {
		return fmt.Errorf("invalid block index %q, expected non-negative integer", blockID)
	}
	fetcher, err := config.fetcher()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, ok := fetcher.FetchBlock(ctx, ledgerID, index)
	if !ok {
		consolePrintf("No block data found.\n")
		return nil
	}
	var opts []explorer.ViewOption
	if config.TokenMetadata {
		if md, ok := fetcher.FetchMetadata(ctx, ledgerID); ok {
			opts = append(opts, explorer.WithDecimals(uint(md.Decimals)), explorer.WithSymbol(md.Symbol))
		}
	}

	w := tabwriter.NewWriter(consoleWriter, 0, 0, 2, ' ', 0)
	for _, row := range explorer.Assemble(b, opts...).Rows() {
		fmt.Fprintf(w, "%s\t%s\n", row.Label, row.Value)
	}
	return w.Flush()
}
