package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// MineNewBlock attempts to create a new block with a proper hash that can
// become the next block in the chain. The pending transactions that apply
// cleanly to the utxos are recorded, the rest are evicted from the pool.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.mineMu.Lock()
	defer s.mineMu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrEmptyPendingQueue
	}

	trans := s.selectTransactions()
	if len(trans) == 0 {
		return database.Block{}, ErrEmptyPendingQueue
	}

	// Register the cancel function so an accepted block or a shutdown
	// can stop this mining operation.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.setMiningCancel(cancel)
	defer s.setMiningCancel(nil)

	s.evHandler("state: MineNewBlock: MINING: perform POW: trans[%d]", len(trans))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		Difficulty: s.genesis.Difficulty,
		PrevBlock:  s.db.LatestBlock(),
		Trans:      trans,
		EvHandler:  s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: validate and update database")

	// Validate the block and then update the blockchain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block produced elsewhere, validates it and
// if that passes, adds the block to the local blockchain.
func (s *State) ProcessProposedBlock(block database.Block) (database.Block, error) {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.PrevHash, block.Hash, len(block.Transactions))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash)

	block = block.Clone()

	// Validate the block and then update the blockchain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return database.Block{}, err
	}

	// Any mining operation in flight is now building on a stale block.
	s.evHandler("state: ProcessProposedBlock: signal mining to terminate")
	s.cancelInFlightMining()

	// There may be pending transactions this block didn't record.
	if s.mempool.Count() > 0 {
		s.Worker.SignalStartMining()
	}

	return block, nil
}

// =============================================================================

// selectTransactions walks the pool in submission order and keeps the
// transactions that can be applied on top of the ones already kept.
func (s *State) selectTransactions() []database.Tx {
	var trans []database.Tx
	var evict []database.Tx

	for _, tx := range s.mempool.Copy() {
		candidate := append(trans[:len(trans):len(trans)], tx)

		if err := s.db.CheckTransactions(candidate); err != nil {
			s.evHandler("state: selectTransactions: WARNING: tx[%s]: evicted: %s", tx, err)
			evict = append(evict, tx)
			continue
		}

		trans = candidate
	}

	if len(evict) > 0 {
		s.mempool.Delete(evict...)
	}

	return trans
}

// validateUpdateDatabase takes the block and validates the block against the
// consensus rules. If the block passes, then the state of the node is updated
// including adding the block to storage.
func (s *State) validateUpdateDatabase(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: validateUpdateDatabase: validate block")

	if err := block.ValidateBlock(s.db.LatestBlock(), s.genesis.Difficulty, s.evHandler); err != nil {
		return err
	}

	s.evHandler("state: validateUpdateDatabase: write block and apply utxos")

	// Write the new block to the chain and apply the transactions.
	if err := s.db.ApplyBlock(block); err != nil {
		return err
	}

	s.evHandler("state: validateUpdateDatabase: remove transactions from mempool")

	// The recorded transactions are no longer pending.
	s.mempool.Delete(block.Transactions...)

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockTransJSON, err := json.Marshal(block.Transactions)
	if err != nil {
		blockTransJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"index":%d,"hash":%q,"previous_hash":%q,"nonce":%d,"timestamp":%d,"transactions":%s}`, block.Index, block.Hash, block.PrevHash, block.Nonce, block.TimeStamp, string(blockTransJSON))
}

// =============================================================================

// setMiningCancel records the cancel function of the mining operation in
// flight.
func (s *State) setMiningCancel(cancel context.CancelFunc) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	s.cancelMining = cancel
}

// cancelInFlightMining stops the mining operation in flight if there is one.
func (s *State) cancelInFlightMining() {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	if s.cancelMining != nil {
		s.cancelMining()
	}
}
