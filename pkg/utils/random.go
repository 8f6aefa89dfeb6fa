package utils

import (
	"crypto/rand"
	"math/big"
)

// Item ids travel in callback data, which Telegram caps at 64 bytes, so the
// alphabet stays lowercase alphanumeric.
const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewItemID returns n random characters from idAlphabet. It returns "" only
// when the system randomness source fails.
func NewItemID(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range b {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return ""
		}
		b[i] = idAlphabet[num.Int64()]
	}
	return string(b)
}
