package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// Block represents a group of transactions batched together.
type Block struct {
	Index        uint64 `json:"index"`         // Position of the block in the chain, genesis is 0.
	TimeStamp    uint64 `json:"timestamp"`     // Time the block was created in unix milliseconds.
	Transactions []Tx   `json:"transactions"`  // Transactions recorded by this block.
	PrevHash     string `json:"previous_hash"` // Hash of the previous block in the chain.
	Nonce        uint64 `json:"nonce"`         // Value identified to solve the hash solution.
	Hash         string `json:"hash"`          // Hash of all the fields above.
}

// NewGenesisBlock constructs the first block of the chain. The genesis
// block carries no transactions and is not mined.
func NewGenesisBlock(timeStamp time.Time) Block {
	b := Block{
		Index:        0,
		TimeStamp:    uint64(timeStamp.UTC().UnixMilli()),
		Transactions: []Tx{},
		PrevHash:     signature.ZeroHash,
		Nonce:        0,
	}
	b.Hash = b.ComputeHash()

	return b
}

// ComputeHash returns the hash of the block. The block's own hash field is
// not part of the calculation.
func (b Block) ComputeHash() string {
	return signature.Hash(b.payload())
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	trans := make([]Tx, len(b.Transactions))
	for i, tx := range b.Transactions {
		trans[i] = tx.Clone()
	}
	b.Transactions = trans

	return b
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain after the specified previous block.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint16, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Index)

	if b.PrevHash != previousBlock.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrPreviousHashMismatch, b.PrevHash, previousBlock.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block index is the next index", b.Index)

	nextIndex := previousBlock.Index + 1
	if b.Index != nextIndex {
		return fmt.Errorf("%w: got %d, exp %d", ErrInvalidBlockIndex, b.Index, nextIndex)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block has transactions", b.Index)

	if len(b.Transactions) == 0 {
		return ErrNoTransactions
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash matches block contents", b.Index)

	hash := b.ComputeHash()
	if hash != b.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrInvalidBlockHash, b.Hash, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Index)

	if !isHashSolved(difficulty, hash) {
		return fmt.Errorf("%w: %s does not meet difficulty %d", ErrInvalidBlockHash, hash, difficulty)
	}

	return nil
}

// ValidateGenesis checks the block is a well formed genesis block.
func (b Block) ValidateGenesis() error {
	if b.Index != 0 {
		return fmt.Errorf("%w: genesis index %d", ErrInvalidBlockIndex, b.Index)
	}

	if b.PrevHash != signature.ZeroHash {
		return fmt.Errorf("%w: genesis previous hash %s", ErrPreviousHashMismatch, b.PrevHash)
	}

	if len(b.Transactions) != 0 {
		return fmt.Errorf("genesis block has %d transactions", len(b.Transactions))
	}

	if hash := b.ComputeHash(); hash != b.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrInvalidBlockHash, b.Hash, hash)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Sprintf("%d:%s", b.Index, b.Hash)
	}
	return string(data)
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Difficulty uint16
	PrevBlock  Block
	Trans      []Tx
	EvHandler  func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	if len(args.Trans) == 0 {
		return Block{}, ErrNoTransactions
	}

	evHandler := args.EvHandler
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	trans := make([]Tx, len(args.Trans))
	for i, tx := range args.Trans {
		trans[i] = tx.Clone()
	}

	// Construct the block to be mined.
	nb := Block{
		Index:        args.PrevBlock.Index + 1,
		TimeStamp:    uint64(time.Now().UTC().UnixMilli()),
		Transactions: trans,
		PrevHash:     args.PrevBlock.Hash,
		Nonce:        0,
	}

	// Perform the proof of work mining operation.
	if err := nb.performPOW(ctx, args.Difficulty, evHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, difficulty uint16, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started")
	defer ev("database: PerformPOW: MINING: completed")

	// Log the transactions that are a part of this potential block.
	for _, tx := range b.Transactions {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	// The transactions don't change while mining so the payload is built
	// once and only the nonce is updated.
	payload := b.payload()

	// Loop until we find a solution or we are cancelled. The search starts
	// at nonce 0 and moves up by 1.
	b.Nonce = 0
	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		payload.Nonce = b.Nonce
		hash := signature.Hash(payload)
		if !isHashSolved(difficulty, hash) {
			b.Nonce++
			continue
		}

		b.Hash = hash

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.PrevHash, hash)
		ev("database: PerformPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// zeros is sized to the longest possible hash.
var zeros = strings.Repeat("0", signature.HashLength)

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint16, hash string) bool {
	if len(hash) != signature.HashLength || int(difficulty) > len(hash) {
		return false
	}

	return hash[:difficulty] == zeros[:difficulty]
}

// =============================================================================

// blockPayload is what gets hashed for a block. Fields are declared in key
// order so the encoding is key-sorted.
type blockPayload struct {
	Index        uint64     `json:"index"`
	Nonce        uint64     `json:"nonce"`
	PrevHash     string     `json:"previous_hash"`
	TimeStamp    uint64     `json:"timestamp"`
	Transactions []txRecord `json:"transactions"`
}

func (b Block) payload() blockPayload {
	trans := make([]txRecord, len(b.Transactions))
	for i, tx := range b.Transactions {
		trans[i] = newTxRecord(tx)
	}

	return blockPayload{
		Index:        b.Index,
		Nonce:        b.Nonce,
		PrevHash:     b.PrevHash,
		TimeStamp:    b.TimeStamp,
		Transactions: trans,
	}
}
