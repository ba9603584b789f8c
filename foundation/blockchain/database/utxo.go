package database

import "fmt"

// UTXO represents a transaction output and whether it has been consumed.
type UTXO struct {
	TransactionID string `json:"transaction_id"`
	Amount        uint64 `json:"amount"`
	IsSpent       bool   `json:"is_spent"`
}

// UTXOSet maintains the set of outputs created by the transactions of the
// blockchain. Entries are never removed, a spent output stays spent.
//
// UTXOSet is not safe for concurrent use, the Database owning it provides
// the locking.
type UTXOSet struct {
	entries map[string]UTXO
}

// NewUTXOSet constructs an empty utxo set.
func NewUTXOSet() *UTXOSet {
	return &UTXOSet{
		entries: make(map[string]UTXO),
	}
}

// IsSpendable returns true if the utxo exists and has not been spent.
func (us *UTXOSet) IsSpendable(id string) bool {
	utxo, exists := us.entries[id]
	return exists && !utxo.IsSpent
}

// Get returns the utxo for the specified id.
func (us *UTXOSet) Get(id string) (UTXO, bool) {
	utxo, exists := us.entries[id]
	return utxo, exists
}

// Len returns the number of utxos in the set, spent or not.
func (us *UTXOSet) Len() int {
	return len(us.entries)
}

// Copy returns a copy of the utxos in the set.
func (us *UTXOSet) Copy() map[string]UTXO {
	cpy := make(map[string]UTXO, len(us.entries))
	for id, utxo := range us.entries {
		cpy[id] = utxo
	}
	return cpy
}

// CheckInputs validates every input of the transaction can be spent. The
// set is not changed.
func (us *UTXOSet) CheckInputs(tx Tx) error {
	for _, id := range tx.InputUTXOs {
		if !us.IsSpendable(id) {
			return fmt.Errorf("%w: %s", ErrUnspentInputMissing, id)
		}
	}
	return nil
}

// Check performs a dry run of applying the transactions in order. An input
// may spend an output created earlier in the same set of transactions.
func (us *UTXOSet) Check(trans []Tx) error {
	spent := make(map[string]bool)
	created := make(map[string]bool)

	for _, tx := range trans {
		for _, id := range tx.InputUTXOs {
			if spent[id] {
				return fmt.Errorf("%w: %s: spent twice, tx[%s]", ErrUnspentInputMissing, id, tx.ID)
			}

			if !created[id] && !us.IsSpendable(id) {
				return fmt.Errorf("%w: %s: tx[%s]", ErrUnspentInputMissing, id, tx.ID)
			}

			spent[id] = true
		}

		for _, id := range tx.OutputUTXOs {
			if _, exists := us.entries[id]; exists || created[id] {
				return fmt.Errorf("%w: %s: tx[%s]", ErrDuplicateOutput, id, tx.ID)
			}

			created[id] = true
		}
	}

	return nil
}

// Apply updates the set with the transactions of the block. Nothing is
// changed if any transaction fails the checks.
//
// Every output receives the full amount of the transaction. Amounts are
// not split across outputs.
func (us *UTXOSet) Apply(block Block) error {
	if err := us.Check(block.Transactions); err != nil {
		return err
	}

	for _, tx := range block.Transactions {
		for _, id := range tx.InputUTXOs {
			utxo := us.entries[id]
			utxo.IsSpent = true
			us.entries[id] = utxo
		}

		for _, id := range tx.OutputUTXOs {
			us.entries[id] = UTXO{
				TransactionID: tx.ID,
				Amount:        tx.Amount,
				IsSpent:       false,
			}
		}
	}

	return nil
}
