package state

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/google/uuid"
)

// SubmitTransaction accepts a transaction for inclusion in a future block.
// An id is assigned when an unsigned transaction doesn't carry one. A signed
// transaction must carry its id since the id is part of what was signed.
// The stored transaction is returned.
func (s *State) SubmitTransaction(tx database.Tx) (database.Tx, error) {
	if tx.ID == "" {
		if tx.Signature != "" {
			return database.Tx{}, fmt.Errorf("%w: signed transaction has no id", database.ErrInvalidSignature)
		}
		tx.ID = uuid.NewString()
	}

	if s.verifySubmissions {
		if err := s.VerifyTransaction(tx); err != nil {
			return database.Tx{}, err
		}
	}

	tx = tx.Clone()

	n, err := s.mempool.Upsert(tx)
	if err != nil {
		return database.Tx{}, err
	}

	s.evHandler("state: SubmitTransaction: tx[%s]: pending[%d]", tx, n)

	s.Worker.SignalStartMining()

	return tx, nil
}

// VerifyTransaction checks the inputs of the transaction can be spent and
// that the signature was produced by the sender. Nothing is changed.
func (s *State) VerifyTransaction(tx database.Tx) error {
	if err := s.db.CheckInputs(tx); err != nil {
		return err
	}

	return tx.VerifySignature()
}
