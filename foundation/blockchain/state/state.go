// Package state is the core API for the ledger and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"sync"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/mempool"
)

// ErrEmptyPendingQueue is returned when a block is requested to be mined
// and there are no transactions waiting to be recorded.
var ErrEmptyPendingQueue = errors.New("no pending transactions")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis           genesis.Genesis
	Storage           database.Storage
	VerifySubmissions bool
	EvHandler         EventHandler
}

// State manages the ledger: the chain of blocks, the utxos they produce and
// the pool of transactions waiting to be mined.
type State struct {
	mu     sync.Mutex // Serializes block validation and append.
	mineMu sync.Mutex // Serializes mining operations.

	cancelMu     sync.Mutex
	cancelMining context.CancelFunc

	evHandler         EventHandler
	verifySubmissions bool

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database

	Worker Worker
}

// New constructs a new ledger for data management. A genesis block is
// created when the storage is empty.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Genesis.Difficulty == 0 && cfg.Genesis.Date.IsZero() {
		gen, err := genesis.New(genesis.DefaultDifficulty)
		if err != nil {
			return nil, err
		}
		cfg.Genesis = gen
	}

	// Access the storage for the blockchain.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the ledger.
	state := State{
		evHandler:         ev,
		verifySubmissions: cfg.VerifySubmissions,

		genesis: cfg.Genesis,
		mempool: mempool.New(),
		db:      db,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.
	state.Worker = nopWorker{}

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the database is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()
	s.cancelInFlightMining()

	return nil
}

// =============================================================================

// nopWorker is used when no background mining is running.
type nopWorker struct{}

func (nopWorker) Shutdown()          {}
func (nopWorker) SignalStartMining() {}
