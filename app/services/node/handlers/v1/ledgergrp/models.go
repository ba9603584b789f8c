package ledgergrp

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// tx is what a client submits for a transaction.
type tx struct {
	ID          string   `json:"id"`
	Sender      string   `json:"sender" validate:"required"`
	Receiver    string   `json:"receiver" validate:"required"`
	Amount      uint64   `json:"amount"`
	InputUTXOs  []string `json:"input_utxos" validate:"dive,required"`
	OutputUTXOs []string `json:"output_utxos" validate:"dive,required"`
	Signature   string   `json:"signature"`
}

func (t tx) toDatabase() database.Tx {
	return database.Tx{
		ID:          t.ID,
		Sender:      t.Sender,
		Receiver:    t.Receiver,
		Amount:      t.Amount,
		InputUTXOs:  t.InputUTXOs,
		OutputUTXOs: t.OutputUTXOs,
		Signature:   t.Signature,
	}
}

// block is what a client submits for a block produced elsewhere.
type block struct {
	Index        uint64 `json:"index"`
	TimeStamp    uint64 `json:"timestamp"`
	Transactions []tx   `json:"transactions" validate:"dive"`
	PrevHash     string `json:"previous_hash" validate:"required"`
	Nonce        uint64 `json:"nonce"`
	Hash         string `json:"hash" validate:"required,len=64,hexadecimal"`
}

func (b block) toDatabase() database.Block {
	trans := make([]database.Tx, len(b.Transactions))
	for i, tx := range b.Transactions {
		trans[i] = tx.toDatabase()
	}

	return database.Block{
		Index:        b.Index,
		TimeStamp:    b.TimeStamp,
		Transactions: trans,
		PrevHash:     b.PrevHash,
		Nonce:        b.Nonce,
		Hash:         b.Hash,
	}
}

// chain is the response for the full chain listing.
type chain struct {
	Length int              `json:"length"`
	Chain  []database.Block `json:"chain"`
}

// status is a simple acknowledgement.
type status struct {
	Status string `json:"status"`
}
