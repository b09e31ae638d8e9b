package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters, enough for log lines and report headers
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// ComputeFingerprint hashes an ordered list of parts. Order matters: the same
// parts in a different order produce a different fingerprint.
func ComputeFingerprint(parts ...interface{}) Hash {
	var data strings.Builder
	for i, p := range parts {
		if i > 0 {
			data.WriteByte('|')
		}
		data.WriteString(fmt.Sprintf("%v", p))
	}
	return NewHash([]byte(data.String()))
}
