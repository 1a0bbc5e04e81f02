package view

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatVotes renders a vote tally in FIL
func FormatVotes(n int64) string {
	return fmt.Sprintf("%d FIL", n)
}

// FormatDeadline renders a date the way en-US locales do: M/D/YYYY
func FormatDeadline(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

// FormatCount renders n with thousands separators
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// ShortAddress keeps the first six and last four characters of an address
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// ChecksumAddress returns the EIP-55 mixed-case form of a 20-byte hex
// address. Anything else is returned unchanged.
func ChecksumAddress(addr string) string {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return addr
	}
	lower := strings.ToLower(addr[2:])
	if _, err := hex.DecodeString(lower); err != nil {
		return addr
	}

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}
