package codegen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// MinDigits and MaxDigits bound the supported passcode lengths.
const (
	MinDigits = 4
	MaxDigits = 10
)

// ErrInvalidDigits indicates an unsupported passcode length.
var ErrInvalidDigits = errors.New("codegen: digits out of range")

// Generator produces random numeric passcodes of a given length.
type Generator interface {
	// Next returns a numeric string of exactly digits characters,
	// uniformly distributed over [0, 10^digits).
	Next(digits int) (string, error)
}

// CryptoNumeric is the production Generator backed by crypto/rand.
type CryptoNumeric struct{}

// NewCryptoNumeric returns a crypto/rand backed passcode generator.
func NewCryptoNumeric() *CryptoNumeric {
	return &CryptoNumeric{}
}

// Next returns a uniformly distributed numeric string of exactly digits characters.
func (*CryptoNumeric) Next(digits int) (string, error) {
	if digits < MinDigits || digits > MaxDigits {
		return "", ErrInvalidDigits
	}

	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
