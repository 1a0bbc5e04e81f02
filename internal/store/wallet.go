package store

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomAddress returns a simulated wallet address: "0x" followed by 40
// lowercase hex characters. The bytes carry no key material.
func RandomAddress() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return "0x" + hex.EncodeToString(b)
}
