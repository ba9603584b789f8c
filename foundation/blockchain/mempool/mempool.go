// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"errors"
	"sync"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// Mempool represents a cache of transactions waiting to be mined. Transactions
// are kept in the order they were first submitted and keyed by their id.
type Mempool struct {
	mu    sync.RWMutex
	pool  map[string]database.Tx
	order []string
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		pool: make(map[string]database.Tx),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool. A replaced
// transaction keeps its position.
func (mp *Mempool) Upsert(tx database.Tx) (int, error) {
	if tx.ID == "" {
		return 0, errors.New("transaction id is required")
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[tx.ID]; !exists {
		mp.order = append(mp.order, tx.ID)
	}
	mp.pool[tx.ID] = tx.Clone()

	return len(mp.pool), nil
}

// Delete removes the transactions from the mempool. A pooled transaction
// that was replaced after the specified copy was taken is kept.
func (mp *Mempool) Delete(trans ...database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var removed bool
	for _, tx := range trans {
		if pooled, exists := mp.pool[tx.ID]; exists && pooled.Equal(tx) {
			delete(mp.pool, tx.ID)
			removed = true
		}
	}

	if !removed {
		return
	}

	order := make([]string, 0, len(mp.pool))
	for _, id := range mp.order {
		if _, exists := mp.pool[id]; exists {
			order = append(order, id)
		}
	}
	mp.order = order
}

// Copy returns the transactions in the order they were submitted.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	trans := make([]database.Tx, 0, len(mp.order))
	for _, id := range mp.order {
		trans = append(trans, mp.pool[id].Clone())
	}

	return trans
}
