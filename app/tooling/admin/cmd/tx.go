package cmd

import (
	"net/http"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	txID       string
	txReceiver string
	txAmount   uint64
	txInputs   []string
	txOutputs  []string
)

// signedTx builds the transaction from the flags and signs it with the
// account's private key. The id is signed, so one is generated here when
// the flag is empty.
func signedTx() (database.Tx, error) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return database.Tx{}, err
	}

	id := txID
	if id == "" {
		id = uuid.NewString()
	}

	tx := database.Tx{
		ID:          id,
		Receiver:    txReceiver,
		Amount:      txAmount,
		InputUTXOs:  txInputs,
		OutputUTXOs: txOutputs,
	}

	return tx.Sign(privateKey)
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a transaction and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := signedTx()
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), tx)
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Sign a transaction and submit it to the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := signedTx()
		if err != nil {
			return err
		}

		var stored database.Tx
		if err := send(http.MethodPost, "/v1/tx/submit", tx, &stored); err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), stored)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Sign a transaction and ask the node to verify it",
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := signedTx()
		if err != nil {
			return err
		}

		var status struct {
			Status string `json:"status"`
		}
		if err := send(http.MethodPost, "/v1/tx/verify", tx, &status); err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), status)
	},
}

func init() {
	for _, c := range []*cobra.Command{signCmd, submitCmd, verifyCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVarP(&txID, "id", "i", "", "Unique id for the transaction, generated when empty.")
		c.Flags().StringVarP(&txReceiver, "receiver", "r", "", "Receiver of the value.")
		c.Flags().Uint64VarP(&txAmount, "amount", "v", 0, "Amount to send.")
		c.Flags().StringSliceVar(&txInputs, "in", nil, "Utxos consumed by the transaction.")
		c.Flags().StringSliceVar(&txOutputs, "out", nil, "Utxos created by the transaction.")
		c.MarkFlagRequired("receiver")
	}
}
