package concrete

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainLiteral is the hash domain for literal identities. The version suffix
// allows the encoding to change without colliding with old hashes.
const DomainLiteral = "pyrometer/literal/v1"

// HashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data). The null separator prevents ambiguity at the
// domain/data boundary.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content-addressed identity of a literal. Two literals with
// the same kind, width and payload hash identically; Equal values of
// different kinds (uint8:5 and uint256:5) do not.
func Hash(v Value) (string, error) {
	data, err := MarshalValue(v)
	if err != nil {
		return "", fmt.Errorf("hash literal: %w", err)
	}
	return HashWithDomain(DomainLiteral, data), nil
}
