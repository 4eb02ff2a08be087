package controller

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint digests an execution order so runs with different orders can
// be told apart in logs and the journal.
func Fingerprint(order []Controller) string {
	h, _ := blake2b.New256(nil)
	for _, c := range order {
		h.Write([]byte(c.Name()))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}
