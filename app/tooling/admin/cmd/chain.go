package cmd

import (
	"net/http"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine the pending transactions into a new block",
	RunE: func(cmd *cobra.Command, args []string) error {
		var block database.Block
		if err := send(http.MethodPost, "/v1/blocks/mine", nil, &block); err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), block)
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		var chain struct {
			Length int              `json:"length"`
			Chain  []database.Block `json:"chain"`
		}
		if err := send(http.MethodGet, "/v1/chain", nil, &chain); err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), chain)
	},
}

var utxosCmd = &cobra.Command{
	Use:   "utxos [id]",
	Short: "Print the utxo pool or a single utxo",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			var utxo database.UTXO
			if err := send(http.MethodGet, "/v1/utxo/list/"+args[0], nil, &utxo); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), utxo)
		}

		var utxos map[string]database.UTXO
		if err := send(http.MethodGet, "/v1/utxo/list", nil, &utxos); err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), utxos)
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(utxosCmd)
}
