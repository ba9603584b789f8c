package database

import "errors"

// Set of error variables for validating blocks and transactions. Callers
// match these with errors.Is since they are always wrapped with details.
var (
	ErrPreviousHashMismatch = errors.New("previous hash does not match the latest block")
	ErrInvalidBlockHash     = errors.New("invalid block hash")
	ErrInvalidBlockIndex    = errors.New("block is not the next index")
	ErrNoTransactions       = errors.New("block has no transactions")
	ErrUnspentInputMissing  = errors.New("invalid or spent utxo")
	ErrDuplicateOutput      = errors.New("utxo already exists")
	ErrInvalidSignature     = errors.New("invalid transaction signature")
)
