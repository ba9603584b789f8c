// Package database handles all the lower level support for maintaining the
// blockchain in storage and maintaining an in memory set of utxos.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
)

// Database manages the blocks of the chain and the utxos they produce.
// A block is written to storage and applied to the utxos under a single
// lock so readers never see a partially applied block.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	latestBlock Block
	utxos       *UTXOSet

	storage Storage
}

// New constructs a new database. If the storage is empty, the genesis block
// is created and written. Otherwise the blocks in storage are validated and
// replayed to rebuild the utxos.
func New(genesis genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	if storage == nil {
		return nil, errors.New("storage is required")
	}

	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	db := Database{
		genesis: genesis,
		utxos:   NewUTXOSet(),
		storage: storage,
	}

	// Read all the blocks from storage.
	var latestBlock Block
	var count int

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		switch count {
		case 0:
			if err := block.ValidateGenesis(); err != nil {
				return nil, fmt.Errorf("replaying genesis block: %w", err)
			}

		default:
			if err := block.ValidateBlock(latestBlock, genesis.Difficulty, evHandler); err != nil {
				return nil, fmt.Errorf("replaying block %d: %w", block.Index, err)
			}

			if err := db.utxos.Apply(block); err != nil {
				return nil, fmt.Errorf("replaying block %d: %w", block.Index, err)
			}
		}

		latestBlock = block
		count++
	}

	// An empty storage means this is a new chain.
	if count == 0 {
		latestBlock = NewGenesisBlock(genesis.Date)
		if err := db.storage.Write(latestBlock); err != nil {
			return nil, fmt.Errorf("writing genesis block: %w", err)
		}

		evHandler("database: New: genesis block created: hash[%s]", latestBlock.Hash)
	}

	db.latestBlock = latestBlock

	return &db, nil
}

// Close closes the open blocks database.
func (db *Database) Close() error {
	return db.storage.Close()
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock.Clone()
}

// ApplyBlock adds the block to the chain and applies its transactions to
// the utxos. The block must already be validated against the latest block.
func (db *Database) ApplyBlock(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	// Another block may have been added since the caller validated.
	if block.PrevHash != db.latestBlock.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrPreviousHashMismatch, block.PrevHash, db.latestBlock.Hash)
	}

	// Check before writing so a failure leaves storage and utxos untouched.
	if err := db.utxos.Check(block.Transactions); err != nil {
		return err
	}

	block = block.Clone()

	if err := db.storage.Write(block); err != nil {
		return err
	}

	if err := db.utxos.Apply(block); err != nil {
		return err
	}

	db.latestBlock = block

	return nil
}

// CheckInputs validates the inputs of the transaction can be spent.
func (db *Database) CheckInputs(tx Tx) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.utxos.CheckInputs(tx)
}

// CheckTransactions validates the transactions could be applied in order
// on top of the current utxos.
func (db *Database) CheckTransactions(trans []Tx) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.utxos.Check(trans)
}

// CopyUTXOs makes a copy of the current utxos in the database.
func (db *Database) CopyUTXOs() map[string]UTXO {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.utxos.Copy()
}

// QueryUTXO returns the utxo for the specified id.
func (db *Database) QueryUTXO(id string) (UTXO, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.utxos.Get(id)
}

// UTXOCount returns the number of utxos known to the database.
func (db *Database) UTXOCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.utxos.Len()
}

// GetBlock searches the blockchain to locate and return the contents of
// the specified block by index.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num > db.latestBlock.Index {
		return Block{}, errors.New("block does not exist")
	}

	return db.storage.GetBlock(num)
}

// Blocks returns every block in the chain starting with genesis.
func (db *Database) Blocks() ([]Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, 0, db.latestBlock.Index+1)

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}
