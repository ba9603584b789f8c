// Package signature provides helper functions for handling the blockchain
// signature and hashing needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	jsoniter "github.com/json-iterator/go"
)

// ZeroHash represents the previous hash value recorded in the genesis block.
const ZeroHash string = "0"

// HashLength is the number of hex characters in a hash produced by Hash.
const HashLength = sha256.Size * 2

// stamp is prefixed to every message before signing. This will make it
// clear that the signature comes from this ledger and can't be replayed
// as some other kind of signed message.
const stamp = "\x19Ledger Signed Message:\n32"

// canonical is the encoder used for everything that is hashed or signed.
// HTML escaping is disabled so the bytes match a plain JSON encoder in any
// other language. Callers provide structs whose fields are declared in
// lexicographic key order which makes the encoding key-sorted.
var canonical = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// =============================================================================

// Canonical returns the canonical encoding of the value.
func Canonical(value any) ([]byte, error) {
	return canonical.Marshal(value)
}

// Hash returns the hex encoded sha256 of the canonical encoding of the
// value. An empty string is returned if the value can't be encoded.
func Hash(value any) string {
	data, err := Canonical(value)
	if err != nil {
		return ""
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Sign uses the specified private key to sign the message. The signature
// is returned hex encoded in the [R|S|V] format.
func Sign(message []byte, privateKey *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(digest(message), privateKey)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(sig), nil
}

// Verify checks the signature was produced over the message by the private
// key that belongs to the specified public key. Any malformed input results
// in false.
func Verify(publicKey string, message []byte, sig string) bool {
	pubKey, err := decodePublicKey(publicKey)
	if err != nil {
		return false
	}

	sigBytes, err := decodeHex(sig)
	if err != nil {
		return false
	}

	// The recovery id is not needed to verify, only [R|S].
	switch len(sigBytes) {
	case crypto.SignatureLength:
		sigBytes = sigBytes[:crypto.RecoveryIDOffset]
	case crypto.RecoveryIDOffset:
	default:
		return false
	}

	return crypto.VerifySignature(pubKey, digest(message), sigBytes)
}

// PublicKeyString returns the hex encoding of the uncompressed public key.
// This is the identity used for the sender of a transaction.
func PublicKeyString(publicKey ecdsa.PublicKey) string {
	return hexutil.Encode(crypto.FromECDSAPub(&publicKey))
}

// =============================================================================

// digest returns a hash of 32 bytes that represents the message with
// the ledger stamp embedded into the final hash.
func digest(message []byte) []byte {
	return crypto.Keccak256([]byte(stamp), crypto.Keccak256(message))
}

// decodePublicKey accepts compressed (33 bytes), uncompressed (65 bytes) and
// raw X|Y (64 bytes) encodings of a secp256k1 public key.
func decodePublicKey(publicKey string) ([]byte, error) {
	b, err := decodeHex(publicKey)
	if err != nil {
		return nil, err
	}

	if len(b) == 64 {
		b = append([]byte{0x04}, b...)
	}

	switch len(b) {
	case 33:
		if _, err := crypto.DecompressPubkey(b); err != nil {
			return nil, err
		}
	case 65:
		if _, err := crypto.UnmarshalPubkey(b); err != nil {
			return nil, err
		}
	default:
		return nil, hexutil.ErrSyntax
	}

	return b, nil
}

// decodeHex decodes a hex string with or without the 0x prefix.
func decodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}
