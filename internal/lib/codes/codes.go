package codes

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const sessionTokenBytes = 32

// Numeric returns a fixed-width numeric code, zero-padded on the left.
func Numeric(digits int) (string, error) {
	const op = "codes.Numeric"

	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

// Token returns an opaque URL-safe bearer token.
func Token() (string, error) {
	const op = "codes.Token"

	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
