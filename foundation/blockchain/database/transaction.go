package database

import (
	"crypto/ecdsa"
	"fmt"
	"slices"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// Tx is a value transfer between two parties. Inputs name the utxos being
// consumed and outputs name the utxos being created.
type Tx struct {
	ID          string   `json:"id"`           // Unique id supplied by the client or assigned by the node.
	Sender      string   `json:"sender"`       // Hex encoded public key of the sender.
	Receiver    string   `json:"receiver"`     // Identity of the account receiving the value.
	Amount      uint64   `json:"amount"`       // Value transferred in the smallest unit.
	InputUTXOs  []string `json:"input_utxos"`  // Utxos consumed by this transaction.
	OutputUTXOs []string `json:"output_utxos"` // Utxos created by this transaction.
	Signature   string   `json:"signature"`    // Hex encoded [R|S|V] signature over the payload.
}

// Sign uses the specified private key to sign the transaction. The sender
// is set to the public key of the private key so the signature covers it.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (Tx, error) {
	tx.Sender = signature.PublicKeyString(privateKey.PublicKey)

	payload, err := tx.Payload()
	if err != nil {
		return Tx{}, err
	}

	sig, err := signature.Sign(payload, privateKey)
	if err != nil {
		return Tx{}, err
	}
	tx.Signature = sig

	return tx, nil
}

// Payload returns the canonical bytes that are signed. The signature
// field itself is not part of the payload.
func (tx Tx) Payload() ([]byte, error) {
	return signature.Canonical(txPayload{
		Amount:      tx.Amount,
		ID:          tx.ID,
		InputUTXOs:  nonNil(tx.InputUTXOs),
		OutputUTXOs: nonNil(tx.OutputUTXOs),
		Receiver:    tx.Receiver,
		Sender:      tx.Sender,
	})
}

// VerifySignature checks the signature was produced by the sender over
// the transaction payload.
func (tx Tx) VerifySignature() error {
	payload, err := tx.Payload()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	if !signature.Verify(tx.Sender, payload, tx.Signature) {
		return fmt.Errorf("%w: tx[%s]", ErrInvalidSignature, tx.ID)
	}

	return nil
}

// Clone returns a deep copy of the transaction.
func (tx Tx) Clone() Tx {
	tx.InputUTXOs = cloneStrings(tx.InputUTXOs)
	tx.OutputUTXOs = cloneStrings(tx.OutputUTXOs)
	return tx
}

// Equal reports whether both transactions carry the same content.
func (tx Tx) Equal(other Tx) bool {
	return tx.ID == other.ID &&
		tx.Sender == other.Sender &&
		tx.Receiver == other.Receiver &&
		tx.Amount == other.Amount &&
		tx.Signature == other.Signature &&
		slices.Equal(tx.InputUTXOs, other.InputUTXOs) &&
		slices.Equal(tx.OutputUTXOs, other.OutputUTXOs)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%d:in%d:out%d", tx.ID, tx.Amount, len(tx.InputUTXOs), len(tx.OutputUTXOs))
}

// =============================================================================

// txPayload is the signed portion of a transaction. Fields are declared in
// key order so the encoding is key-sorted.
type txPayload struct {
	Amount      uint64   `json:"amount"`
	ID          string   `json:"id"`
	InputUTXOs  []string `json:"input_utxos"`
	OutputUTXOs []string `json:"output_utxos"`
	Receiver    string   `json:"receiver"`
	Sender      string   `json:"sender"`
}

// txRecord is how a transaction is encoded inside a block for hashing.
// Fields are declared in key order so the encoding is key-sorted.
type txRecord struct {
	Amount      uint64   `json:"amount"`
	ID          string   `json:"id"`
	InputUTXOs  []string `json:"input_utxos"`
	OutputUTXOs []string `json:"output_utxos"`
	Receiver    string   `json:"receiver"`
	Sender      string   `json:"sender"`
	Signature   string   `json:"signature"`
}

func newTxRecord(tx Tx) txRecord {
	return txRecord{
		Amount:      tx.Amount,
		ID:          tx.ID,
		InputUTXOs:  nonNil(tx.InputUTXOs),
		OutputUTXOs: nonNil(tx.OutputUTXOs),
		Receiver:    tx.Receiver,
		Sender:      tx.Sender,
		Signature:   tx.Signature,
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// nonNil makes sure an empty list encodes as [] and not null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
