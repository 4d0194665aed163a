package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/coursehub/internal/dependencies/mocks"
)

func TestSessionIssuerRoundTrip(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewSessionIssuer("secret", time.Hour, clk)

	session, err := issuer.Issue("user-1")
	require.NoError(t, err)
	assert.Equal(t, clk.Now(), session.IssuedAt)
	assert.Equal(t, clk.Now().Add(time.Hour), session.ExpiresAt)

	userID, err := issuer.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", string(userID))
}

func TestSessionIssuerTokensAreUnique(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewSessionIssuer("secret", time.Hour, clk)

	a, err := issuer.Issue("user-1")
	require.NoError(t, err)
	b, err := issuer.Issue("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)
}

func TestSessionIssuerRejects(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewSessionIssuer("secret", time.Hour, clk)

	valid, err := issuer.Issue("user-1")
	require.NoError(t, err)

	other, err := NewSessionIssuer("other-secret", time.Hour, clk).Issue("user-1")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    TokenIssuer,
		ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1",
		Issuer:  TokenIssuer,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "abc.def"},
		{"wrong secret", other.Token},
		{"alg none", none},
		{"wrong issuer", foreign},
		{"no expiry", noExpiry},
		{"tampered", valid.Token + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}

func TestSessionIssuerExpiry(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewSessionIssuer("secret", time.Hour, clk)

	session, err := issuer.Issue("user-1")
	require.NoError(t, err)

	clk.Advance(59 * time.Minute)
	_, err = issuer.Verify(session.Token)
	assert.NoError(t, err)

	clk.Advance(2 * time.Minute)
	_, err = issuer.Verify(session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("pass1234")
	require.NoError(t, err)
	assert.True(t, h.Verify("pass1234", hash))
	assert.False(t, h.Verify("pass1235", hash))

	again, err := h.Hash("pass1234")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes are salted")

	_, err = h.Hash(string(make([]byte, MaxSecretBytes+1)))
	assert.ErrorIs(t, err, ErrSecretTooLong)
}

func TestChallengeGenerator(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	rng := mocks.NewMockRandom()
	rng.QueueDigits("48213")

	gen := NewChallengeGenerator(rng, clk, 5, 15*time.Minute)
	c := gen.Generate()
	assert.Equal(t, "48213", c.Code)
	assert.Equal(t, clk.Now().Add(15*time.Minute), c.ExpiresAt)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "secret is required")

	cfg.Secret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.ChallengeDigits = 12
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateChallengeDigits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Secret = "s"

	for _, digits := range []int{0, 1, 9} {
		cfg.ChallengeDigits = digits
		assert.NoError(t, cfg.Validate(), "digits %d", digits)
	}
	for _, digits := range []int{-1, 10} {
		cfg.ChallengeDigits = digits
		err := cfg.Validate()
		require.Error(t, err, "digits %d", digits)
		assert.Contains(t, err.Error(), "0 for the default")
	}

	cfg.ChallengeDigits = 0
	assert.Equal(t, 5, cfg.withDefaults().ChallengeDigits)
}
