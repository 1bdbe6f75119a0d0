// Package security provides the protocol's content hashing and nonce
// generation. Every hash is SHA-256 and rendered as lowercase hex; the
// commitment formulas concatenate canonical 32-byte field words, so the
// digests are bit-compatible with the on-chain verifier.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/attest-network/attest/internal/domain"
)

// HashSize is the digest width in bytes.
const HashSize = sha256.Size

// NonceSize is the commitment nonce width in bytes (256 bits of entropy).
const NonceSize = 32

// HashInput hashes raw input text.
func HashInput(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HashOutput hashes a structured output value. The value is serialized to
// canonical JSON first (encoding/json sorts map keys), so equal values
// always produce equal digests regardless of construction order.
func HashOutput(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnserializable, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// HashModel hashes raw model bytes (weights, ONNX graph, circuit).
func HashModel(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GenerateJobID derives a deterministic job ID from the payer address,
// the input hash and the creation timestamp (unix milliseconds).
func GenerateJobID(payer, inputHash string, timestampMs int64) string {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(timestampMs))

	h := sha256.New()
	w := fieldWord(payer)
	h.Write(w[:])
	w = fieldWord(inputHash)
	h.Write(w[:])
	h.Write(ts[:])
	return hex.EncodeToString(h.Sum(nil))
}

// NewNonce draws a fresh cryptographically strong nonce.
func NewNonce() (string, error) {
	buf := make([]byte, NonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashFields computes H(f1 ‖ f2 ‖ ... ‖ fn) over canonical 32-byte field
// words. Field order and width are part of the wire contract shared with
// the external verifier and must not change.
func HashFields(fields ...string) string {
	h := sha256.New()
	for _, f := range fields {
		w := fieldWord(f)
		h.Write(w[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// fieldWord canonicalizes an arbitrary field to a fixed 32-byte word:
// a 64-char hex string decodes to its raw 32 bytes; anything else is
// hashed down to 32 bytes.
func fieldWord(field string) [HashSize]byte {
	if len(field) == 2*HashSize {
		if raw, err := hex.DecodeString(field); err == nil {
			var w [HashSize]byte
			copy(w[:], raw)
			return w
		}
	}
	return sha256.Sum256([]byte(field))
}
