package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest identifies a synthetic package by the bytes it is written from.
type Digest [32]byte

// Combine hashes parts in order: H(part1 || part2 ...).
func Combine(parts ...[]byte) Digest {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Short is the first 8 bytes in hex, used in directory names.
func (d Digest) Short() string {
	return hex.EncodeToString(d[:8])
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
