// Package hash defines the 256-bit content identifier used throughout mog.
package hash

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// Size is the length in bytes of a Hash.
const Size = 32

// Hash is an opaque 256-bit content identifier. Equality and ordering are
// byte-wise.
type Hash [Size]byte

// Zero is the all-zero hash.
var Zero Hash

// Sum computes the BLAKE3-256 hash of data.
func Sum(data []byte) Hash {
	return blake3.Sum256(data)
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// String returns the canonical lowercase hex form.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Compare returns -1, 0, or 1 as h is byte-wise less than, equal to, or
// greater than other.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// Less reports whether h sorts before other.
func (h Hash) Less(other Hash) bool {
	return h.Compare(other) < 0
}

// Parse decodes a canonical lowercase hex string into a Hash.
func Parse(s string) (Hash, error) {
	var h Hash
	if len(s) != Size*2 {
		return h, fmt.Errorf("hash: invalid hex length %d (want %d)", len(s), Size*2)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("hash: invalid hex: %w", err)
	}
	copy(h[:], b)
	return h, nil
}
