package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	codePrefix   = "RSV-"
	codeLength   = 6
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O or 1/I
)

// GenerateReservationCode returns a short code a guest can read over the phone.
func GenerateReservationCode() (string, error) {
	var b strings.Builder
	b.WriteString(codePrefix)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate reservation code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeReservationCode accepts codes typed with stray spaces or lower case.
func NormalizeReservationCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
