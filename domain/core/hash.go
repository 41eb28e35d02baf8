package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// SchemaHash fingerprints an ordered list of DDL statements
func SchemaHash(statements ...string) Hash {
	return NewHash([]byte(strings.Join(statements, ";\n")))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first n hex digits
func (h Hash) Short(n int) string {
	if n >= len(h) {
		return string(h)
	}
	return string(h[:n])
}
