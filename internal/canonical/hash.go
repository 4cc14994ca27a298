package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room for a
// future algorithm change.
const (
	DomainProducer = "genlist/producer/v1"
	DomainTrace    = "genlist/trace/v1"
)

// HashBytes computes SHA-256 over domain, a 0x00 separator, then data.
// The separator keeps domain and data from running into each other.
func HashBytes(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash canonically marshals v and hashes it under domain.
func Hash(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashBytes(domain, data), nil
}
