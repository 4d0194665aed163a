package random

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// Digits returns a fixed-width numeric string of the given length with no
	// leading zero, drawn uniformly from [10^(length-1), 10^length)
	Digits(length int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails if the OS entropy source is broken
		panic("random: crypto/rand failed: " + err.Error())
	}
	return int(result.Int64())
}

// Digits returns a uniformly random numeric code of the given width
func (r *CryptoRandom) Digits(length int) string {
	if length <= 0 {
		return ""
	}
	low := pow10(length - 1)
	high := pow10(length)
	return strconv.Itoa(low + r.Intn(high-low))
}

func pow10(n int) int {
	result := 1
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}
