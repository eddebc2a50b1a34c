// Package sha256 provides SHA-256 hashing utilities.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// ElementIDLength is the number of hex characters kept for element IDs.
const ElementIDLength = 32

// Hasher derives content-addressed IDs with SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ElementID hashes the identifying parts of a partitioned element and keeps
// the first ElementIDLength hex characters. Parts are length-prefixed so
// ("ab","c") and ("a","bc") differ.
func (h *Hasher) ElementID(elementType, text, filename string, page, index int) string {
	hasher := sha256.New()
	for _, part := range []string{elementType, text, filename, strconv.Itoa(page), strconv.Itoa(index)} {
		_, _ = hasher.Write([]byte(strconv.Itoa(len(part))))
		_, _ = hasher.Write([]byte{':'})
		_, _ = hasher.Write([]byte(part))
	}
	return hex.EncodeToString(hasher.Sum(nil))[:ElementIDLength]
}
