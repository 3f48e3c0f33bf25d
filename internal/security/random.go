package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	resetCodeMin = 100000
	resetCodeMax = 999999
)

func NewRandomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func NewCSRFToken() (string, error) {
	return NewRandomString(32)
}

// NewResetCode returns a six digit code drawn uniformly from [100000, 999999].
func NewResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeMax-resetCodeMin+1))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+resetCodeMin), nil
}
