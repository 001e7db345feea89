package service

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeDigits  = "0123456789"
)

var codeFormat = regexp.MustCompile(`^[A-Z]{3}[0-9]{3}$`)

// CodeGenerator produces scannable item codes. Uniqueness is checked by the caller.
type CodeGenerator interface {
	Generate() (string, error)
}

type randomCodeGenerator struct{}

// NewCodeGenerator returns a generator of three uppercase letters followed by three digits
func NewCodeGenerator() CodeGenerator {
	return randomCodeGenerator{}
}

func (randomCodeGenerator) Generate() (string, error) {
	code := make([]byte, 0, 6)
	for i := 0; i < 6; i++ {
		alphabet := codeLetters
		if i >= 3 {
			alphabet = codeDigits
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		code = append(code, alphabet[n.Int64()])
	}
	return string(code), nil
}

// validCodeFormat reports whether code has the generated LLLDDD shape
func validCodeFormat(code string) bool {
	return codeFormat.MatchString(code)
}
