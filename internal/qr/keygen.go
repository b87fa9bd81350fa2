package qr

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// KeyLength is the length of generated canonical keys.
const KeyLength = 8

// keyCharset deliberately omits 0/O and 1/I: stickers get typed in by hand
// when the camera fails.
const keyCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateKey creates a random canonical key. The result is already in
// canonical form: Normalize(k) == k.
func GenerateKey() (string, error) {
	result := make([]byte, KeyLength)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(keyCharset))))
		if err != nil {
			return "", fmt.Errorf("generating key: %w", err)
		}
		result[i] = keyCharset[n.Int64()]
	}
	return string(result), nil
}
