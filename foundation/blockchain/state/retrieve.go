package state

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of every block in the chain starting with
// the genesis block.
func (s *State) RetrieveChain() ([]database.Block, error) {
	return s.db.Blocks()
}

// RetrieveMempool returns a copy of the pending transactions in the order
// they were submitted.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveUTXOPool returns a copy of every utxo known to the ledger, spent
// or not.
func (s *State) RetrieveUTXOPool() map[string]database.UTXO {
	return s.db.CopyUTXOs()
}

// RetrieveUTXOCount returns the number of utxos known to the ledger.
func (s *State) RetrieveUTXOCount() int {
	return s.db.UTXOCount()
}
