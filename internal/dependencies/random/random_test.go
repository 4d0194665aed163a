package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntnStaysInRange(t *testing.T) {
	r := New()
	for i := 0; i < 1000; i++ {
		n := r.Intn(7)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 7)
	}
}

func TestIntnNonPositive(t *testing.T) {
	assert.Equal(t, 0, New().Intn(0))
	assert.Equal(t, 0, New().Intn(-3))
}

func TestDigitsFixedWidth(t *testing.T) {
	r := New()
	for i := 0; i < 1000; i++ {
		code := r.Digits(5)
		assert.Len(t, code, 5)
		assert.NotEqual(t, byte('0'), code[0])
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "non-digit in %q", code)
		}
	}
}

func TestDigitsZeroLength(t *testing.T) {
	assert.Equal(t, "", New().Digits(0))
}

func TestDigitsSingle(t *testing.T) {
	code := New().Digits(1)
	assert.Len(t, code, 1)
}
